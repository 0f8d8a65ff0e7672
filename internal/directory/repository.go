package directory

import (
	"context"

	"gorm.io/gorm"
)

// Repository persists the listing catalog.
type Repository interface {
	Create(ctx context.Context, record *ListingRecord) error
	UpdateStatus(ctx context.Context, listingID uint64, status string) error
	List(ctx context.Context) ([]*ListingRecord, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, record *ListingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *gormRepository) UpdateStatus(ctx context.Context, listingID uint64, status string) error {
	return r.db.WithContext(ctx).
		Model(&ListingRecord{}).
		Where("listing_id = ?", listingID).
		Update("status", status).Error
}

func (r *gormRepository) List(ctx context.Context) ([]*ListingRecord, error) {
	var records []*ListingRecord
	err := r.db.WithContext(ctx).Order("listing_id").Find(&records).Error
	return records, err
}
