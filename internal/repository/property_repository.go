package repository

import (
	"context"
	"errors"

	"propsync/internal/models"
	"propsync/internal/sync"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PropertyRepository is the gorm-backed implementation of the sync
// persistence boundary. Uniqueness of the external keys is enforced by the
// database; Create reports violations as sync.ErrDuplicateKey.
type PropertyRepository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) FindByExternalKey(ctx context.Context, refID, reference string) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).
		Where("external_ref_id = ? OR external_reference = ?", refID, reference).
		First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	err := r.db.WithContext(ctx).Create(property).Error
	if isDuplicateKey(err) {
		return sync.ErrDuplicateKey
	}
	return err
}

func (r *PropertyRepository) Update(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Save(property).Error
}

func (r *PropertyRepository) MarkUnavailable(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		Update("status", models.StatusUnavailable).Error
}

func (r *PropertyRepository) CreateRun(ctx context.Context, run *models.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *PropertyRepository) FinishRun(ctx context.Context, run *models.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// isDuplicateKey recognizes a uniqueness violation from gorm's translated
// error or from the raw postgres error code.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
