// Package summarizer implements the daily compaction job: computing
// yesterday's statistics from raw events, persisting the rounded daily
// summary, purging the raw rows, and refreshing the weekly, monthly and
// yearly rollups containing that day. The job is at-least-once safe:
// re-running it skips the duplicate insert and re-upserts identical
// rollups.
package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fna/tracker/internal/config"
	"github.com/fna/tracker/internal/models"
	"github.com/fna/tracker/internal/stats"
	"github.com/fna/tracker/pkg/timeutil"
)

var runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tracker_summarizer_runs_total",
	Help: "Summarization runs by result.",
}, []string{"result"})

// MetricStore is the raw event store slice the job needs.
type MetricStore interface {
	stats.EventSource
	DeleteBetween(ctx context.Context, start, end time.Time) (int64, error)
}

// SummaryStore is the summary persistence slice the job needs.
type SummaryStore interface {
	InsertDaily(ctx context.Context, summary *models.DailySummary) error
	DailyRange(ctx context.Context, startDate, endDate string) ([]models.DailySummary, error)
	UpsertWeekly(ctx context.Context, summary *models.WeeklySummary) error
	UpsertMonthly(ctx context.Context, summary *models.MonthlySummary) error
	UpsertYearly(ctx context.Context, summary *models.YearlySummary) error
}

// Summarizer runs the four-step compaction for "yesterday" in the
// configured timezone.
type Summarizer struct {
	cfg       *config.Config
	loc       *time.Location
	metrics   MetricStore
	summaries SummaryStore
	builder   *stats.Builder
	log       zerolog.Logger

	// Now is swappable for tests.
	Now func() time.Time
}

// New wires a Summarizer. The internal builder bypasses persisted
// summaries: the job always computes from raw rows.
func New(cfg *config.Config, loc *time.Location, metrics MetricStore, summaries SummaryStore, log zerolog.Logger) *Summarizer {
	return &Summarizer{
		cfg:       cfg,
		loc:       loc,
		metrics:   metrics,
		summaries: summaries,
		builder:   stats.NewBuilder(cfg, loc, metrics, nil, log),
		log:       log.With().Str("component", "summarizer").Logger(),
		Now:       time.Now,
	}
}

// Run executes the job once. The steps are strictly sequential: raw data
// is never deleted before the daily summary is durably written (or found
// to already exist), and rollup failures never undo the compaction.
func (s *Summarizer) Run(ctx context.Context) error {
	if err := s.run(ctx); err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return err
	}
	runsTotal.WithLabelValues("success").Inc()
	return nil
}

func (s *Summarizer) run(ctx context.Context) error {
	yesterday := s.Now().In(s.loc).AddDate(0, 0, -1)
	dateKey := timeutil.DateKey(yesterday, s.loc)
	start, end := timeutil.DayBounds(yesterday, s.loc)

	s.log.Info().Str("date", dateKey).
		Time("query_start", start.UTC()).
		Time("query_end", end.UTC()).
		Msg("starting daily summarization")

	// Step 1: compute yesterday's snapshot from one unfiltered fetch,
	// split in memory by device class. A fetch failure here is fatal:
	// without the events there is nothing safe to persist or delete.
	events, err := s.metrics.EventsBetween(ctx, start, end, nil)
	if err != nil {
		return errors.Wrap(err, "failed to fetch events for summarization")
	}
	pc, mobile, reading := s.splitByClass(events)
	s.log.Info().Int("total", len(events)).Int("pc", len(pc)).
		Int("mobile", len(mobile)).Int("reading", len(reading)).
		Msg("events fetched")

	snapshot := s.builder.BuildFromEvents(ctx, dateKey, false, start, end, pc, mobile, reading)
	daily := SnapshotToDaily(snapshot)

	// Step 2: persist the rounded summary. A duplicate date means a
	// previous run already got this far; continue to deletion.
	if err := s.summaries.InsertDaily(ctx, daily); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.log.Info().Str("date", dateKey).Msg("summary already exists, proceeding")
		} else {
			return errors.Wrap(err, "failed to insert daily summary")
		}
	} else {
		s.log.Info().Str("date", dateKey).Msg("daily summary created")
	}

	// Step 3: purge the raw rows. Only reached after the summary is
	// confirmed durable; deleting an already-empty range is a no-op.
	deleted, err := s.metrics.DeleteBetween(ctx, start, end)
	if err != nil {
		return errors.Wrap(err, "failed to delete raw events")
	}
	s.log.Info().Int64("rows", deleted).Str("date", dateKey).Msg("raw events purged")

	// Step 4: refresh the period rollups containing yesterday. Failures
	// here are logged per period and do not fail the run; the next
	// invocation re-upserts them.
	s.updateRollups(ctx, yesterday)

	return nil
}

func (s *Summarizer) splitByClass(events []models.Metric) (pc, mobile, reading []models.Metric) {
	pcIDs := make(map[string]bool)
	for _, id := range s.cfg.PCDeviceIDs() {
		pcIDs[id] = true
	}
	for _, event := range events {
		switch {
		case pcIDs[event.DeviceID]:
			pc = append(pc, event)
		case event.DeviceID == s.cfg.Devices.MobileID:
			mobile = append(mobile, event)
		case event.DeviceID == s.cfg.Devices.ReaderID:
			reading = append(reading, event)
		}
		// Other device ids (wearables) are outside this job's scope.
	}
	return pc, mobile, reading
}

func (s *Summarizer) updateRollups(ctx context.Context, day time.Time) {
	weekStart := timeutil.WeekStart(day, s.loc)
	weekEnd := weekStart.AddDate(0, 0, 6)
	s.rollupPeriod(ctx, "weekly",
		timeutil.DateKey(weekStart, s.loc), timeutil.DateKey(weekEnd, s.loc),
		timeutil.DateKey(weekStart, s.loc),
		func(p models.PeriodSummary) error {
			return s.summaries.UpsertWeekly(ctx, &models.WeeklySummary{PeriodSummary: p})
		})

	monthStart := timeutil.MonthStart(day, s.loc)
	monthEnd := monthStart.AddDate(0, 1, -1)
	s.rollupPeriod(ctx, "monthly",
		timeutil.DateKey(monthStart, s.loc), timeutil.DateKey(monthEnd, s.loc),
		timeutil.DateKey(monthStart, s.loc),
		func(p models.PeriodSummary) error {
			return s.summaries.UpsertMonthly(ctx, &models.MonthlySummary{PeriodSummary: p})
		})

	yearStart := timeutil.YearStart(day, s.loc)
	yearEnd := yearStart.AddDate(1, 0, -1)
	s.rollupPeriod(ctx, "yearly",
		timeutil.DateKey(yearStart, s.loc), timeutil.DateKey(yearEnd, s.loc),
		fmt.Sprintf("%d", day.In(s.loc).Year()),
		func(p models.PeriodSummary) error {
			return s.summaries.UpsertYearly(ctx, &models.YearlySummary{PeriodSummary: p})
		})
}

// rollupPeriod recomputes one period aggregate from all its currently
// persisted daily rows and upserts it by anchor.
func (s *Summarizer) rollupPeriod(ctx context.Context, period, startDate, endDate, anchor string, upsert func(models.PeriodSummary) error) {
	days, err := s.summaries.DailyRange(ctx, startDate, endDate)
	if err != nil {
		s.log.Error().Err(err).Str("period", period).Str("anchor", anchor).
			Msg("failed to fetch daily rows for rollup")
		return
	}
	if len(days) == 0 {
		s.log.Info().Str("period", period).Str("anchor", anchor).Msg("no daily data for period, skipping")
		return
	}

	rollup := RollupDays(anchor, days)
	if err := upsert(rollup); err != nil {
		s.log.Error().Err(err).Str("period", period).Str("anchor", anchor).
			Msg("failed to upsert period summary")
		return
	}
	s.log.Info().Str("period", period).Str("anchor", anchor).
		Int("days", len(days)).Msg("period summary updated")
}
