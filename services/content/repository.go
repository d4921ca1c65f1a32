package content

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrVersionConflict means the row changed since it was loaded.
var ErrVersionConflict = errors.New("content record was modified concurrently")

// ListParams describes filters applied when listing records.
type ListParams struct {
	Kind        Kind
	Statuses    []Status
	Origin      Origin
	BusinessID  string
	OwnerUserID string
	// EndedBefore selects records whose end_at is older than the instant.
	EndedBefore *time.Time
	Limit       int
}

// Repository describes database operations available for content records.
// Writes are conditional on the version and status the caller loaded.
type Repository interface {
	WithTrx(tx *gorm.DB) Repository
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, params ListParams) ([]*Record, error)
	Save(ctx context.Context, rec *Record, expectVersion int64, expectStatus Status) error
	Delete(ctx context.Context, rec *Record) error
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	History(ctx context.Context, recordID string) ([]*AuditEntry, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository implementation.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTrx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) Create(ctx context.Context, rec *Record) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var rec Record
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *gormRepository) List(ctx context.Context, params ListParams) ([]*Record, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	query := r.db.WithContext(ctx).Model(&Record{})
	if params.Kind != "" {
		query = query.Where("kind = ?", params.Kind)
	}
	if len(params.Statuses) > 0 {
		query = query.Where("status IN ?", params.Statuses)
	}
	if params.Origin != "" {
		query = query.Where("origin = ?", params.Origin)
	}
	if params.BusinessID != "" {
		query = query.Where("business_id = ?", params.BusinessID)
	}
	if params.OwnerUserID != "" {
		query = query.Where("owner_user_id = ?", params.OwnerUserID)
	}
	if params.EndedBefore != nil {
		query = query.Where("end_at IS NOT NULL AND end_at < ?", *params.EndedBefore)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	query = query.Order("created_at DESC").Order("id DESC")

	var records []*Record
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save writes the mutable columns of rec when the stored row still has
// expectVersion and expectStatus. On success rec.Version is bumped.
func (r *gormRepository) Save(ctx context.Context, rec *Record, expectVersion int64, expectStatus Status) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}

	next := expectVersion + 1
	res := r.db.WithContext(ctx).
		Model(&Record{}).
		Where("id = ? AND version = ? AND status = ?", rec.ID, expectVersion, expectStatus).
		Updates(map[string]any{
			"title":       rec.Title,
			"description": rec.Description,
			"category":    rec.Category,
			"location":    rec.Location,
			"image_url":   rec.ImageURL,
			"link_url":    rec.LinkURL,
			"pinned":      rec.Pinned,
			"start_at":    rec.StartAt,
			"end_at":      rec.EndAt,
			"status":      rec.Status,
			"origin":      rec.Origin,
			"version":     next,
			"updated_at":  rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	rec.Version = next
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, rec *Record) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}

	res := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Delete(&Record{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *gormRepository) AppendAudit(ctx context.Context, entry *AuditEntry) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormRepository) History(ctx context.Context, recordID string) ([]*AuditEntry, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var entries []*AuditEntry
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
