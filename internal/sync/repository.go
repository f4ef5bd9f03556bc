package sync

import (
	"context"
	"errors"

	"propsync/internal/models"
)

// ErrDuplicateKey is returned by PropertyRepository.Create when another row
// already holds the listing's external key. The orchestrator relies on it to
// recover from concurrent creates by retrying as an update.
var ErrDuplicateKey = errors.New("sync: duplicate external key")

// PropertyRepository is the persistence boundary the orchestrator writes
// through. Implementations must fail Create with ErrDuplicateKey on a
// uniqueness violation rather than silently overwriting.
type PropertyRepository interface {
	// FindByExternalKey matches on either identifier; (nil, nil) when no row
	// matches.
	FindByExternalKey(ctx context.Context, refID, reference string) (*models.Property, error)
	Create(ctx context.Context, property *models.Property) error
	Update(ctx context.Context, property *models.Property) error
	MarkUnavailable(ctx context.Context, id string) error
}

// SyncRunStore records bulk sync history.
type SyncRunStore interface {
	CreateRun(ctx context.Context, run *models.SyncRun) error
	FinishRun(ctx context.Context, run *models.SyncRun) error
}
