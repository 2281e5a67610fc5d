package database

import (
	"context"
	"time"

	"github.com/fna/tracker/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// MetricRepository handles all database operations for raw metric events.
type MetricRepository struct {
	db       *DB
	readerID string
}

// NewMetricRepository creates a new metric repository. readerID is the
// e-reader device id used for prior-book lookups.
func NewMetricRepository(db *DB, readerID string) *MetricRepository {
	return &MetricRepository{db: db, readerID: readerID}
}

// Insert appends a new raw event.
func (r *MetricRepository) Insert(ctx context.Context, event *models.Metric) error {
	result := r.db.WithContext(ctx).Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert metric")
	}
	return nil
}

// EventsBetween returns raw events in [start, end) ordered ascending by
// creation time, filtered by device id membership when deviceIDs is
// non-empty.
func (r *MetricRepository) EventsBetween(ctx context.Context, start, end time.Time, deviceIDs []string) ([]models.Metric, error) {
	var events []models.Metric
	query := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC")
	if len(deviceIDs) > 0 {
		query = query.Where("device_id IN ?", deviceIDs)
	}
	result := query.Find(&events)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query metrics")
	}
	return events, nil
}

// LastReaderEventBefore returns the most recent book-progress event
// strictly before the given instant, or nil when none exists.
func (r *MetricRepository) LastReaderEventBefore(ctx context.Context, before time.Time) (*models.Metric, error) {
	var event models.Metric
	result := r.db.WithContext(ctx).
		Where("device_id = ? AND created_at < ?", r.readerID, before).
		Order("created_at DESC").
		First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to query last reader event")
	}
	return &event, nil
}

// DeleteBetween hard-deletes all raw events in [start, end) and returns
// the number of removed rows. Deleting an already-empty range is a no-op.
func (r *MetricRepository) DeleteBetween(ctx context.Context, start, end time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Delete(&models.Metric{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete metrics")
	}
	return result.RowsAffected, nil
}

// Latest returns the most recent raw event, or nil when the store is
// empty.
func (r *MetricRepository) Latest(ctx context.Context) (*models.Metric, error) {
	var event models.Metric
	result := r.db.WithContext(ctx).Order("created_at DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest metric")
	}
	return &event, nil
}
