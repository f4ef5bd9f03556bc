package propspace

import (
	"time"
)

// Listing is the provider's representation of a property listing.
type Listing struct {
	ID               int64         `json:"id"`
	Reference        string        `json:"reference"`
	Title            LocalizedText `json:"title"`
	Description      LocalizedText `json:"description"`
	Price            PriceBlock    `json:"price"`
	Bedrooms         string        `json:"bedrooms"`
	Bathrooms        string        `json:"bathrooms"`
	Size             float64       `json:"size"`
	LocationID       int64         `json:"location_id"`
	Media            Media         `json:"media"`
	Amenities        []string      `json:"amenities"`
	State            ListingState  `json:"state"`
	PropertyType     string        `json:"property_type"`
	CompletionStatus string        `json:"completion_status"`
	Products         []string      `json:"products"`
	Verified         bool          `json:"verified"`
	UpdatedAt        *time.Time    `json:"updated_at"`
}

// LocalizedText carries per-language optional strings. Either side may be
// absent in a listing.
type LocalizedText struct {
	EN *string `json:"en"`
	AR *string `json:"ar"`
}

// PriceBlock maps rental periods to amounts plus the declared period type.
// Amount keys are "sale", "monthly", "yearly", "weekly" and "daily".
type PriceBlock struct {
	Type    string             `json:"type"`
	Amounts map[string]float64 `json:"amounts"`
}

type Media struct {
	Images []MediaItem `json:"images"`
	Videos []MediaItem `json:"videos"`
}

type MediaItem struct {
	URL string `json:"url"`
}

// ListingState is the provider's lifecycle block. A listing is live only when
// the stage reports "live".
type ListingState struct {
	Stage string `json:"stage"`
	Type  string `json:"type"`
}

// Location is a row of the provider's own location table, referenced from
// listings by id.
type Location struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	NameAR   string `json:"name_l1"`
	ParentID *int64 `json:"parent_id"`
}

// WebhookEvent is the wire shape of an inbound webhook body.
type WebhookEvent struct {
	EventType string     `json:"eventType"`
	Timestamp *time.Time `json:"timestamp"`
	Data      struct {
		Listing Listing `json:"listing"`
	} `json:"data"`
}

// WebhookSubscription describes the webhook registration held at the provider.
type WebhookSubscription struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	URL     string `json:"url"`
	Active  bool   `json:"active"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ListingsResponse is one page of the provider's listing search.
type ListingsResponse struct {
	Listings []Listing `json:"listings"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
}

type locationsResponse struct {
	Locations []Location `json:"locations"`
}

// LocationFilter narrows a location search. A zero filter returns everything
// up to PerPage entries.
type LocationFilter struct {
	ID       int64
	Name     string
	ParentID int64
	PerPage  int
}
