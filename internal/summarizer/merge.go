package summarizer

import (
	"math"

	"github.com/fna/tracker/internal/models"
)

// MergeMaps adds every entry of src into dst, key by key. The operation
// is commutative and associative over any processing order of days.
func MergeMaps(dst, src models.SummaryMap) models.SummaryMap {
	if dst == nil {
		dst = models.SummaryMap{}
	}
	for key, val := range src {
		dst[key] += val
	}
	return dst
}

// RollupDays folds a set of daily summary rows into one period rollup.
// Numeric fields are summed; the per-name maps merge key by key.
func RollupDays(anchor string, days []models.DailySummary) models.PeriodSummary {
	rollup := models.PeriodSummary{
		Anchor:           anchor,
		DayCount:         len(days),
		PCAppSummary:     models.SummaryMap{},
		MobileAppSummary: models.SummaryMap{},
		GamesSummary:     models.SummaryMap{},
		BooksSummary:     models.SummaryMap{},
	}

	for _, day := range days {
		rollup.TotalScreentimeMinutes += day.ScreentimeMinutes
		rollup.TotalPCMinutes += day.PCTotalMinutes
		rollup.TotalMobileMinutes += day.MobileTotalMinutes
		rollup.TotalReadingMinutes += day.ReadingMinutes
		rollup.TotalGamingMinutes += day.GamingMinutes

		rollup.PCAppSummary = MergeMaps(rollup.PCAppSummary, day.PCAppSummary)
		rollup.MobileAppSummary = MergeMaps(rollup.MobileAppSummary, day.MobileAppSummary)
		rollup.GamesSummary = MergeMaps(rollup.GamesSummary, day.GamesSummary)
		rollup.BooksSummary = MergeMaps(rollup.BooksSummary, day.BooksSummary)
	}

	if len(days) > 0 {
		avg := float64(rollup.TotalScreentimeMinutes) / float64(len(days))
		rollup.AvgDailyScreentimeMinutes = int(math.Round(avg))
	}
	return rollup
}

// SnapshotToDaily projects a computed snapshot into its rounded,
// persistable form.
func SnapshotToDaily(s *models.DailyStats) *models.DailySummary {
	round := func(v float64) int { return int(math.Round(v)) }

	toMap := func(list []models.NameMinutes) models.SummaryMap {
		m := models.SummaryMap{}
		for _, item := range list {
			m[item.Name] = round(item.Minutes)
		}
		return m
	}

	books := models.SummaryMap{}
	for _, book := range s.Books {
		books[book.Title] = round(book.TimeSpentSec / 60)
	}

	return &models.DailySummary{
		Date:                s.Date,
		PCTotalMinutes:      round(s.PCTotalMinutes),
		MobileTotalMinutes:  round(s.MobileTotalMinutes),
		ScreentimeMinutes:   round(s.ScreenTimeMinutes),
		SimultaneousMinutes: round(s.SimultaneousMinutes),
		ReadingMinutes:      round(s.ReadingMinutes),
		GamingMinutes:       round(s.GamingMinutes),
		OfficeMinutes:       round(s.Location.OfficeMinutes),
		HomeMinutes:         round(s.Location.HomeMinutes),
		OutsideMinutes:      round(s.Location.OutsideMinutes),
		PCAppSummary:        toMap(s.PCApps),
		MobileAppSummary:    toMap(s.MobileApps),
		GamesSummary:        toMap(s.Games),
		BooksSummary:        books,
		LocationBreakdown:   s.LocationByClass,
	}
}
