package stats

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fna/tracker/internal/config"
	"github.com/fna/tracker/internal/models"
	"github.com/fna/tracker/pkg/timeutil"
)

// EventSource is the slice of the event store the builder depends on.
type EventSource interface {
	// EventsBetween returns raw events in [start, end) for the given
	// device ids, ordered ascending by creation time.
	EventsBetween(ctx context.Context, start, end time.Time, deviceIDs []string) ([]models.Metric, error)

	// LastReaderEventBefore returns the most recent book-progress event
	// strictly before the given instant, or nil when none exists.
	LastReaderEventBefore(ctx context.Context, before time.Time) (*models.Metric, error)
}

// SummarySource reads persisted daily summaries. Once a day has been
// compacted, its summary row is the only source of truth for that date.
type SummarySource interface {
	DailyByDate(ctx context.Context, date string) (*models.DailySummary, error)
}

// Builder orchestrates the reducer and aggregator over one calendar day
// and emits an immutable snapshot.
type Builder struct {
	cfg       *config.Config
	loc       *time.Location
	store     EventSource
	summaries SummarySource // optional
	log       zerolog.Logger

	// Now is swappable for tests.
	Now func() time.Time
}

// NewBuilder wires a Builder. summaries may be nil when persisted-summary
// reconstruction is not wanted (the summarizer computes from raw rows
// only).
func NewBuilder(cfg *config.Config, loc *time.Location, store EventSource, summaries SummarySource, log zerolog.Logger) *Builder {
	return &Builder{
		cfg:       cfg,
		loc:       loc,
		store:     store,
		summaries: summaries,
		log:       log.With().Str("component", "stats").Logger(),
		Now:       time.Now,
	}
}

// Daily computes the snapshot for the given date (YYYY-MM-DD, empty
// means today). Today is always recomputed fresh since its data is still
// arriving; past dates are served from their persisted summary when one
// exists, because the raw rows may already be compacted away.
func (b *Builder) Daily(ctx context.Context, dateStr string) (*models.DailyStats, error) {
	now := b.Now()
	target := now.In(b.loc)
	if dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, b.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
		target = parsed
	}

	dateKey := timeutil.DateKey(target, b.loc)
	isToday := dateKey == timeutil.DateKey(now, b.loc)

	if !isToday && b.summaries != nil {
		summary, err := b.summaries.DailyByDate(ctx, dateKey)
		if err != nil {
			b.log.Warn().Err(err).Str("date", dateKey).Msg("daily summary lookup failed, recomputing from raw events")
		} else if summary != nil {
			return b.fromSummary(summary), nil
		}
	}

	start, end := timeutil.DayBounds(target, b.loc)

	// The three class fetches have no ordering dependency; issue them
	// concurrently. A failed fetch degrades to an empty subset: partial
	// data beats no dashboard.
	var (
		wg         sync.WaitGroup
		pcEvents   []models.Metric
		mobEvents  []models.Metric
		readEvents []models.Metric
	)
	fetch := func(dst *[]models.Metric, class string, ids []string) {
		defer wg.Done()
		events, err := b.store.EventsBetween(ctx, start, end, ids)
		if err != nil {
			b.log.Warn().Err(err).Str("class", class).Str("date", dateKey).Msg("event fetch failed, using empty subset")
			return
		}
		*dst = events
	}
	wg.Add(3)
	go fetch(&pcEvents, "pc", b.cfg.PCDeviceIDs())
	go fetch(&mobEvents, "mobile", []string{b.cfg.Devices.MobileID})
	go fetch(&readEvents, "reading", []string{b.cfg.Devices.ReaderID})
	wg.Wait()

	return b.BuildFromEvents(ctx, dateKey, isToday, start, end, pcEvents, mobEvents, readEvents), nil
}

// BuildFromEvents runs the full reduction over already-fetched event
// subsets. Also used by the summarizer, which fetches once and splits in
// memory.
func (b *Builder) BuildFromEvents(ctx context.Context, dateKey string, isToday bool, start, end time.Time, pc, mobile, reading []models.Metric) *models.DailyStats {
	now := b.Now()
	snapshot := &models.DailyStats{
		Date: dateKey,
		Query: models.QueryInfo{
			ServerTime: now,
			QueryStart: start.UTC(),
			QueryEnd:   end.UTC(),
			Timezone:   b.cfg.Stats.Timezone,
		},
		Books:          []models.BookStat{},
		Games:          []models.NameMinutes{},
		Timeline:       []models.HourBucket{},
		PCApps:         []models.NameMinutes{},
		PCAppsByDevice: map[string][]models.NameMinutes{},
		MobileApps:     []models.NameMinutes{},
		RecentEvents:   []models.ActivityEntry{},
	}

	// A day with zero events is a defined state, not an error.
	if len(pc) == 0 && len(mobile) == 0 && len(reading) == 0 {
		return snapshot
	}

	agg := newAggregator(b.cfg, b.loc, now, isToday)
	agg.processPC(pc)
	agg.processMobile(mobile, reading)

	snapshot.PCTotalMinutes = agg.pcSeconds / 60
	snapshot.MobileTotalMinutes = agg.mobileSeconds / 60
	snapshot.ScreenTimeMinutes = agg.reducer.DedupedScreenTime().Minutes()
	snapshot.SimultaneousMinutes = simultaneousMinutes(
		snapshot.PCTotalMinutes, snapshot.MobileTotalMinutes, snapshot.ScreenTimeMinutes)
	snapshot.ReadingMinutes = agg.readingMin
	snapshot.GamingMinutes = agg.gamingSeconds / 60

	snapshot.Timeline = agg.reducer.HourlyBuckets()
	snapshot.PCApps = sortedNameMinutes(agg.pcApps)
	for device, apps := range agg.pcAppsByDevice {
		snapshot.PCAppsByDevice[device] = sortedNameMinutes(apps)
	}
	snapshot.MobileApps = sortedNameMinutes(agg.mobileApps)

	gamesMin := make(map[string]float64, len(agg.games))
	for title, sec := range agg.games {
		gamesMin[title] = sec / 60
	}
	snapshot.Games = sortedNameMinutes(gamesMin)

	snapshot.Books = b.resolveBooks(ctx, agg, reading, start)

	snapshot.Location = models.LocationStats{
		OfficeMinutes:  agg.rawLocation.office,
		HomeMinutes:    agg.rawLocation.home,
		OutsideMinutes: agg.rawLocation.outside,
	}
	snapshot.LocationByClass = models.LocationBreakdown{
		PC: models.LocationMinutes{
			Office:  roundMin(agg.pcLocation.office),
			Home:    roundMin(agg.pcLocation.home),
			Outside: roundMin(agg.pcLocation.outside),
		},
		Mobile: models.LocationMinutes{
			Office:  roundMin(agg.mobLocation.office),
			Home:    roundMin(agg.mobLocation.home),
			Outside: roundMin(agg.mobLocation.outside),
		},
	}
	snapshot.LastPCStatus = agg.lastPC
	snapshot.LastMobileStatus = agg.lastMobile

	snapshot.RecentEvents = capActivityLog(agg.events, b.cfg.Stats.RecentEventsLimit)
	return snapshot
}

// resolveBooks unions today's progress events (carrying percent complete)
// with the reading-time attributions, falling back to the most recent
// prior progress event when reading happened today but no progress row
// exists yet: the same book is assumed to still be open.
func (b *Builder) resolveBooks(ctx context.Context, agg *aggregator, reading []models.Metric, dayStart time.Time) []models.BookStat {
	final := make(map[string]*models.BookStat)
	var order []string

	for _, row := range reading {
		title := CleanBookTitle(row.Metadata.String("book_title", ""))
		if _, seen := final[title]; seen {
			continue
		}
		final[title] = &models.BookStat{Title: title, Percent: row.Value}
		order = append(order, title)
		agg.events = append(agg.events, models.ActivityEntry{
			ID:       int64(row.ID),
			Time:     row.CreatedAt,
			Device:   "Cloud",
			Detail:   fmt.Sprintf("Progreso: %s (%.1f%%)", title, row.Value),
			Duration: "-",
			Type:     "reading",
		})
	}
	for title, sec := range agg.bookTime {
		if stat, ok := final[title]; ok {
			stat.TimeSpentSec = sec
		} else {
			final[title] = &models.BookStat{Title: title, TimeSpentSec: sec}
			order = append(order, title)
		}
	}

	if len(final) == 0 && agg.readingMin > 0 {
		last, err := b.store.LastReaderEventBefore(ctx, dayStart)
		if err != nil {
			b.log.Warn().Err(err).Msg("prior book lookup failed")
		} else if last != nil {
			title := CleanBookTitle(last.Metadata.String("book_title", ""))
			final[title] = &models.BookStat{
				Title:        title,
				Percent:      last.Value,
				TimeSpentSec: agg.readingMin * 60,
			}
			order = append(order, title)
		}
	}

	books := make([]models.BookStat, 0, len(final))
	for _, title := range order {
		books = append(books, *final[title])
	}
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].TimeSpentSec > books[j].TimeSpentSec
	})
	return books
}

// fromSummary reconstructs a snapshot from its persisted projection.
// Minute-level detail (timeline, activity log, device status) is gone by
// design; the rounded totals and tallies survive.
func (b *Builder) fromSummary(s *models.DailySummary) *models.DailyStats {
	toList := func(m models.SummaryMap) []models.NameMinutes {
		f := make(map[string]float64, len(m))
		for name, minutes := range m {
			f[name] = float64(minutes)
		}
		return sortedNameMinutes(f)
	}

	books := make([]models.BookStat, 0, len(s.BooksSummary))
	for _, nm := range toList(s.BooksSummary) {
		books = append(books, models.BookStat{Title: nm.Name, TimeSpentSec: nm.Minutes * 60})
	}

	return &models.DailyStats{
		Date:                s.Date,
		PCTotalMinutes:      float64(s.PCTotalMinutes),
		MobileTotalMinutes:  float64(s.MobileTotalMinutes),
		ScreenTimeMinutes:   float64(s.ScreentimeMinutes),
		SimultaneousMinutes: float64(s.SimultaneousMinutes),
		ReadingMinutes:      float64(s.ReadingMinutes),
		GamingMinutes:       float64(s.GamingMinutes),
		Books:               books,
		Games:               toList(s.GamesSummary),
		Timeline:            []models.HourBucket{},
		PCApps:              toList(s.PCAppSummary),
		PCAppsByDevice:      map[string][]models.NameMinutes{},
		MobileApps:          toList(s.MobileAppSummary),
		RecentEvents:        []models.ActivityEntry{},
		Location: models.LocationStats{
			OfficeMinutes:  float64(s.OfficeMinutes),
			HomeMinutes:    float64(s.HomeMinutes),
			OutsideMinutes: float64(s.OutsideMinutes),
		},
		LocationByClass: s.LocationBreakdown,
		Query: models.QueryInfo{
			ServerTime: b.Now(),
			Timezone:   b.cfg.Stats.Timezone,
		},
	}
}

func capActivityLog(events []models.ActivityEntry, limit int) []models.ActivityEntry {
	sorted := make([]models.ActivityEntry, len(events))
	copy(sorted, events)
	// Descending by time for display.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.After(sorted[j].Time)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func roundMin(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v + 0.5)
}
