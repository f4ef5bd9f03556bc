package sync

// EventType is the closed set of webhook event kinds the provider emits.
// Unrecognized strings parse to EventUnknown, which the dispatcher logs and
// ignores so provider API evolution cannot break the endpoint.
type EventType int

const (
	EventUnknown EventType = iota
	EventListingCreated
	EventListingUpdated
	EventListingPublished
	EventListingUnpublished
)

func ParseEventType(raw string) EventType {
	switch raw {
	case "listing.created", "created":
		return EventListingCreated
	case "listing.updated", "updated":
		return EventListingUpdated
	case "listing.published", "published":
		return EventListingPublished
	case "listing.unpublished", "unpublished":
		return EventListingUnpublished
	default:
		return EventUnknown
	}
}

func (t EventType) String() string {
	switch t {
	case EventListingCreated:
		return "listing.created"
	case EventListingUpdated:
		return "listing.updated"
	case EventListingPublished:
		return "listing.published"
	case EventListingUnpublished:
		return "listing.unpublished"
	default:
		return "unknown"
	}
}
