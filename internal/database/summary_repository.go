package database

import (
	"context"

	"github.com/fna/tracker/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryRepository handles the persisted daily and period summary
// tables.
type SummaryRepository struct {
	db *DB
}

// NewSummaryRepository creates a new summary repository.
func NewSummaryRepository(db *DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// InsertDaily inserts one daily summary row. A duplicate date surfaces
// as gorm.ErrDuplicatedKey so the caller can treat the day as already
// processed.
func (r *SummaryRepository) InsertDaily(ctx context.Context, summary *models.DailySummary) error {
	result := r.db.WithContext(ctx).Create(summary)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return gorm.ErrDuplicatedKey
		}
		return errors.Wrap(result.Error, "failed to insert daily summary")
	}
	return nil
}

// DailyByDate returns the summary row for one date, or nil when the day
// has not been compacted yet.
func (r *SummaryRepository) DailyByDate(ctx context.Context, date string) (*models.DailySummary, error) {
	var summary models.DailySummary
	result := r.db.WithContext(ctx).Where("date = ?", date).First(&summary)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to query daily summary")
	}
	return &summary, nil
}

// DailyRange returns all summary rows with startDate <= date <= endDate,
// ordered ascending.
func (r *SummaryRepository) DailyRange(ctx context.Context, startDate, endDate string) ([]models.DailySummary, error) {
	var summaries []models.DailySummary
	result := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", startDate, endDate).
		Order("date ASC").
		Find(&summaries)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query daily summaries")
	}
	return summaries, nil
}

// WeeklyRange returns weekly rollups whose anchor falls in the given
// range, ordered ascending. The yearly history view reads these instead
// of daily rows.
func (r *SummaryRepository) WeeklyRange(ctx context.Context, startDate, endDate string) ([]models.WeeklySummary, error) {
	var summaries []models.WeeklySummary
	result := r.db.WithContext(ctx).
		Where("anchor >= ? AND anchor <= ?", startDate, endDate).
		Order("anchor ASC").
		Find(&summaries)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query weekly summaries")
	}
	return summaries, nil
}

// upsertPeriod writes a period rollup keyed by anchor; re-running for
// the same anchor replaces the row, making rollups idempotent.
func (r *SummaryRepository) upsertPeriod(ctx context.Context, row any) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "anchor"}},
		UpdateAll: true,
	}).Create(row)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to upsert period summary")
	}
	return nil
}

// UpsertWeekly writes the weekly rollup anchored at a Monday date.
func (r *SummaryRepository) UpsertWeekly(ctx context.Context, summary *models.WeeklySummary) error {
	return r.upsertPeriod(ctx, summary)
}

// UpsertMonthly writes the monthly rollup anchored at a month start date.
func (r *SummaryRepository) UpsertMonthly(ctx context.Context, summary *models.MonthlySummary) error {
	return r.upsertPeriod(ctx, summary)
}

// UpsertYearly writes the yearly rollup anchored at the year.
func (r *SummaryRepository) UpsertYearly(ctx context.Context, summary *models.YearlySummary) error {
	return r.upsertPeriod(ctx, summary)
}
