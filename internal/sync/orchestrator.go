package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"propsync/internal/events"
	"propsync/internal/logger"
	"propsync/internal/models"
	"propsync/internal/services/propspace"
)

// ListingSource is the slice of the provider client the orchestrator pulls
// listings through.
type ListingSource interface {
	SearchListings(ctx context.Context, page, perPage int) (*propspace.ListingsResponse, error)
	GetListing(ctx context.Context, identifier string) (*propspace.Listing, error)
}

// Report summarizes one bulk sync.
type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// Orchestrator converges provider listings onto the local catalog. Both
// ingestion paths — webhook events and the bulk pull — funnel through
// Reconcile so the catalog can never hold duplicate or stale rows for one
// listing.
type Orchestrator struct {
	source      ListingSource
	transformer *propspace.Transformer
	locations   *propspace.LocationCache
	repo        PropertyRepository
	runs        SyncRunStore
	publisher   events.Publisher
	logger      *logger.Logger
	pageSize    int
}

// NewOrchestrator wires the sync engine. locations, runs and publisher may be
// nil; the corresponding steps are skipped.
func NewOrchestrator(
	source ListingSource,
	transformer *propspace.Transformer,
	locations *propspace.LocationCache,
	repo PropertyRepository,
	runs SyncRunStore,
	publisher events.Publisher,
	logger *logger.Logger,
	pageSize int,
) *Orchestrator {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Orchestrator{
		source:      source,
		transformer: transformer,
		locations:   locations,
		repo:        repo,
		runs:        runs,
		publisher:   publisher,
		logger:      logger,
		pageSize:    pageSize,
	}
}

// Reconcile converges one provider listing onto the catalog. It inserts
// first and falls back to an update on a duplicate-key conflict, so two
// concurrent reconciliations of an unseen listing still end with exactly one
// row. Returns the persisted property and whether it was created.
func (o *Orchestrator) Reconcile(ctx context.Context, listing *propspace.Listing) (*models.Property, bool, error) {
	property, err := o.transformer.Transform(ctx, listing)
	if err != nil {
		return nil, false, err
	}

	err = o.repo.Create(ctx, property)
	if err == nil {
		o.publish(ctx, "property.created", property)
		return property, true, nil
	}
	if !errors.Is(err, ErrDuplicateKey) {
		return nil, false, fmt.Errorf("failed to create property %s: %w", property.ExternalReference, err)
	}

	existing, err := o.repo.FindByExternalKey(ctx, property.ExternalRefID, property.ExternalReference)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up property %s: %w", property.ExternalReference, err)
	}
	if existing == nil {
		return nil, false, fmt.Errorf("property %s conflicted on create but was not found", property.ExternalReference)
	}

	property.ID = existing.ID
	property.CreatedAt = existing.CreatedAt
	if err := o.repo.Update(ctx, property); err != nil {
		return nil, false, fmt.Errorf("failed to update property %s: %w", property.ExternalReference, err)
	}

	o.publish(ctx, "property.updated", property)
	return property, false, nil
}

// HandleEvent dispatches a webhook event. Unknown event types are logged and
// ignored to stay forward-compatible with provider API changes.
func (o *Orchestrator) HandleEvent(ctx context.Context, event *propspace.WebhookEvent) error {
	switch ParseEventType(event.EventType) {
	case EventListingCreated, EventListingUpdated, EventListingPublished:
		_, _, err := o.Reconcile(ctx, &event.Data.Listing)
		return err
	case EventListingUnpublished:
		return o.Unpublish(ctx, &event.Data.Listing)
	default:
		o.logger.Warn("Ignoring unknown webhook event type: %s", event.EventType)
		return nil
	}
}

// Unpublish marks the local row for a delisted listing unavailable. The
// provider's unpublish payload may be partial, so no full transform runs; an
// unknown listing is a no-op.
func (o *Orchestrator) Unpublish(ctx context.Context, listing *propspace.Listing) error {
	if listing.ID == 0 && listing.Reference == "" {
		return propspace.ErrMissingIdentity
	}

	refID := strconv.FormatInt(listing.ID, 10)
	if listing.ID == 0 {
		refID = listing.Reference
	}
	existing, err := o.repo.FindByExternalKey(ctx, refID, listing.Reference)
	if err != nil {
		return fmt.Errorf("failed to look up property %s: %w", listing.Reference, err)
	}
	if existing == nil {
		o.logger.Debug("Unpublish for unknown listing %s, nothing to do", listing.Reference)
		return nil
	}

	if err := o.repo.MarkUnavailable(ctx, existing.ID); err != nil {
		return fmt.Errorf("failed to mark property %s unavailable: %w", existing.ID, err)
	}

	o.publish(ctx, "property.unpublished", existing)
	return nil
}

// SyncAll pages through the provider's active listings and reconciles each
// one independently, so a single malformed listing cannot abort the batch. A
// failing provider search aborts the run: nothing further can succeed without
// the provider. The run is cancellable between listings via ctx.
func (o *Orchestrator) SyncAll(ctx context.Context) (*Report, error) {
	report := &Report{}

	run := &models.SyncRun{Status: models.SyncStatusRunning, StartedAt: time.Now()}
	if o.runs != nil {
		if err := o.runs.CreateRun(ctx, run); err != nil {
			o.logger.Error("Failed to record sync run: %v", err)
		}
	}

	// Front-load the location table so transforms don't serialize on
	// per-listing lookups.
	if o.locations != nil {
		if err := o.locations.PreloadAll(ctx); err != nil {
			o.logger.Warn("Location preload failed, falling back to lazy lookups: %v", err)
		}
	}

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			o.finishRun(ctx, run, report, models.SyncStatusFailed)
			return report, err
		}

		resp, err := o.source.SearchListings(ctx, page, o.pageSize)
		if err != nil {
			o.finishRun(ctx, run, report, models.SyncStatusFailed)
			return report, fmt.Errorf("listing search failed on page %d: %w", page, err)
		}

		for i := range resp.Listings {
			if err := ctx.Err(); err != nil {
				o.finishRun(ctx, run, report, models.SyncStatusFailed)
				return report, err
			}

			_, created, err := o.Reconcile(ctx, &resp.Listings[i])
			if err != nil {
				report.Errors++
				o.logger.Error("Failed to sync listing %s: %v", resp.Listings[i].Reference, err)
				continue
			}
			if created {
				report.Created++
			} else {
				report.Updated++
			}
		}

		if len(resp.Listings) < o.pageSize {
			break
		}
		page++
	}

	o.finishRun(ctx, run, report, models.SyncStatusCompleted)
	o.logger.Info("Bulk sync finished: %d created, %d updated, %d errors",
		report.Created, report.Updated, report.Errors)
	return report, nil
}

// SyncOne pulls a single listing by id or reference and reconciles it.
func (o *Orchestrator) SyncOne(ctx context.Context, identifier string) (*models.Property, error) {
	listing, err := o.source.GetListing(ctx, identifier)
	if err != nil {
		return nil, err
	}

	property, _, err := o.Reconcile(ctx, listing)
	return property, err
}

func (o *Orchestrator) finishRun(ctx context.Context, run *models.SyncRun, report *Report, status models.SyncStatus) {
	if o.runs == nil {
		return
	}
	now := time.Now()
	run.Status = status
	run.Created = report.Created
	run.Updated = report.Updated
	run.Errors = report.Errors
	run.FinishedAt = &now
	if err := o.runs.FinishRun(ctx, run); err != nil {
		o.logger.Error("Failed to finish sync run: %v", err)
	}
}

// publish is best-effort; a broken broker must not fail a reconcile.
func (o *Orchestrator) publish(ctx context.Context, eventType string, property *models.Property) {
	if o.publisher == nil {
		return
	}
	event := events.PropertyEvent{
		Type:          eventType,
		PropertyID:    property.ID,
		ExternalRefID: property.ExternalRefID,
		Timestamp:     time.Now(),
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Error("Failed to publish %s event for %s: %v", eventType, property.ID, err)
	}
}
