package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/fna/tracker/internal/models"
	"github.com/fna/tracker/pkg/timeutil"
)

// History period types.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// HistorySource reads the persisted summary tables backing the history
// views.
type HistorySource interface {
	DailyRange(ctx context.Context, startDate, endDate string) ([]models.DailySummary, error)
	WeeklyRange(ctx context.Context, startDate, endDate string) ([]models.WeeklySummary, error)
}

// History builds the weekly/monthly/yearly history payload around a
// reference date. Weekly and monthly listings walk daily summary rows;
// the yearly listing walks weekly rollups.
func (b *Builder) History(ctx context.Context, source HistorySource, period, dateStr string) (*models.HistoryPayload, error) {
	ref := b.Now().In(b.loc)
	if dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, b.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
		ref = parsed
	}

	var start, end time.Time
	switch period {
	case PeriodWeekly:
		start = timeutil.WeekStart(ref, b.loc)
		end = start.AddDate(0, 0, 6)
	case PeriodMonthly:
		start = timeutil.MonthStart(ref, b.loc)
		end = start.AddDate(0, 1, -1)
	case PeriodYearly:
		start = timeutil.YearStart(ref, b.loc)
		end = start.AddDate(1, 0, -1)
	default:
		return nil, fmt.Errorf("invalid period %q (valid: weekly, monthly, yearly)", period)
	}

	startKey := timeutil.DateKey(start, b.loc)
	endKey := timeutil.DateKey(end, b.loc)

	payload := &models.HistoryPayload{
		Period:      period,
		DateLabel:   startKey,
		RequestDate: timeutil.DateKey(ref, b.loc),
		Items:       []models.HistoryItem{},
		Totals: models.HistoryTotals{
			TopApps:  []models.NameMinutes{},
			TopGames: []models.NameMinutes{},
			TopBooks: []models.NameMinutes{},
		},
	}

	aggApps := models.SummaryMap{}
	aggGames := models.SummaryMap{}
	aggBooks := models.SummaryMap{}

	addItem := func(item models.HistoryItem, pcApps, mobileApps, games, books models.SummaryMap, office, home, outside int) {
		for key, val := range pcApps {
			aggApps[key] += val
		}
		for key, val := range mobileApps {
			aggApps[key] += val
		}
		for key, val := range games {
			aggGames[key] += val
		}
		for key, val := range books {
			aggBooks[key] += val
		}
		item.TopApps = topEntries(mergedApps(pcApps, mobileApps), 3)
		payload.Items = append(payload.Items, item)

		payload.Totals.ScreenTime += item.TotalScreenTime
		payload.Totals.PC += item.PCMinutes
		payload.Totals.Mobile += item.MobileMinutes
		payload.Totals.Reading += item.ReadingMinutes
		payload.Totals.Gaming += item.GamingMinutes
		payload.Totals.Office += office
		payload.Totals.Home += home
		payload.Totals.Outside += outside
	}

	if period == PeriodYearly {
		weeks, err := source.WeeklyRange(ctx, startKey, endKey)
		if err != nil {
			return nil, err
		}
		for _, week := range weeks {
			addItem(models.HistoryItem{
				Label:           week.Anchor,
				DateKey:         week.Anchor,
				TotalScreenTime: week.TotalScreentimeMinutes,
				PCMinutes:       week.TotalPCMinutes,
				MobileMinutes:   week.TotalMobileMinutes,
				ReadingMinutes:  week.TotalReadingMinutes,
				GamingMinutes:   week.TotalGamingMinutes,
			}, week.PCAppSummary, week.MobileAppSummary, week.GamesSummary, week.BooksSummary, 0, 0, 0)
		}
	} else {
		days, err := source.DailyRange(ctx, startKey, endKey)
		if err != nil {
			return nil, err
		}
		for _, day := range days {
			addItem(models.HistoryItem{
				Label:           day.Date,
				DateKey:         day.Date,
				TotalScreenTime: day.ScreentimeMinutes,
				PCMinutes:       day.PCTotalMinutes,
				MobileMinutes:   day.MobileTotalMinutes,
				ReadingMinutes:  day.ReadingMinutes,
				GamingMinutes:   day.GamingMinutes,
			}, day.PCAppSummary, day.MobileAppSummary, day.GamesSummary, day.BooksSummary,
				day.OfficeMinutes, day.HomeMinutes, day.OutsideMinutes)
		}
	}

	payload.Totals.TopApps = topEntries(aggApps, 10)
	payload.Totals.TopGames = topEntries(aggGames, 5)
	payload.Totals.TopBooks = topEntries(aggBooks, 5)
	return payload, nil
}

func mergedApps(a, b models.SummaryMap) models.SummaryMap {
	merged := models.SummaryMap{}
	for key, val := range a {
		merged[key] += val
	}
	for key, val := range b {
		merged[key] += val
	}
	return merged
}

func topEntries(m models.SummaryMap, limit int) []models.NameMinutes {
	f := make(map[string]float64, len(m))
	for name, minutes := range m {
		f[name] = float64(minutes)
	}
	list := sortedNameMinutes(f)
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}
