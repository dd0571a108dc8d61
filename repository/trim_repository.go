package repository

import (
	"context"
	"fmt"

	"hourtrim/model"

	"gorm.io/gorm"
)

// MaxTrimRecords bounds a single history listing.
const MaxTrimRecords = 500

// TrimRecordRepository 剪辑记录数据访问接口
type TrimRecordRepository interface {
	Create(ctx context.Context, record *model.TrimRecord) error
	ListRecent(ctx context.Context, limit int) ([]*model.TrimRecord, error)
	ListByPath(ctx context.Context, relativePath string, limit int) ([]*model.TrimRecord, error)
}

// gormTrimRecordRepository GORM 实现
type gormTrimRecordRepository struct {
	db *gorm.DB
}

// NewGormTrimRecordRepository creates a GORM-backed TrimRecordRepository.
func NewGormTrimRecordRepository(db *gorm.DB) TrimRecordRepository {
	return &gormTrimRecordRepository{db: db}
}

func (r *gormTrimRecordRepository) Create(ctx context.Context, record *model.TrimRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create trim record: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first.
func (r *gormTrimRecordRepository) ListRecent(ctx context.Context, limit int) ([]*model.TrimRecord, error) {
	var records []*model.TrimRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(ClampLimit(limit)).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trim records: %w", err)
	}
	return records, nil
}

// ListByPath returns the newest records for one date directory.
func (r *gormTrimRecordRepository) ListByPath(ctx context.Context, relativePath string, limit int) ([]*model.TrimRecord, error) {
	var records []*model.TrimRecord
	err := r.db.WithContext(ctx).
		Where("relative_path = ?", relativePath).
		Order("created_at DESC").
		Limit(ClampLimit(limit)).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trim records for %s: %w", relativePath, err)
	}
	return records, nil
}

// ClampLimit applies the default of 50 and the MaxTrimRecords ceiling.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > MaxTrimRecords:
		return MaxTrimRecords
	default:
		return limit
	}
}
