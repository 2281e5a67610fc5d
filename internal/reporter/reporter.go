package reporter

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/fna/tracker/internal/models"
	"github.com/fna/tracker/internal/stats"
	"github.com/fna/tracker/pkg/timeutil"
)

// Reporter renders snapshots for the CLI.
type Reporter struct {
	builder *stats.Builder
}

// New creates a new reporter.
func New(builder *stats.Builder) *Reporter {
	return &Reporter{builder: builder}
}

// DailyReport computes the snapshot for the given date (empty = today).
func (r *Reporter) DailyReport(ctx context.Context, dateStr string) (*models.DailyStats, error) {
	return r.builder.Daily(ctx, dateStr)
}

// FormatText formats a snapshot as human-readable text.
func (r *Reporter) FormatText(s *models.DailyStats) string {
	output := fmt.Sprintf("Daily Activity - %s\n", s.Date)
	output += fmt.Sprintf("Screen Time: %s (PC %s, Mobile %s, overlap %s)\n",
		timeutil.FormatRoundedUnit(int64(s.ScreenTimeMinutes*60)),
		timeutil.FormatRoundedUnit(int64(s.PCTotalMinutes*60)),
		timeutil.FormatRoundedUnit(int64(s.MobileTotalMinutes*60)),
		timeutil.FormatRoundedUnit(int64(s.SimultaneousMinutes*60)))
	output += fmt.Sprintf("Reading: %s   Gaming: %s\n\n",
		timeutil.FormatRoundedUnit(int64(s.ReadingMinutes*60)),
		timeutil.FormatRoundedUnit(int64(s.GamingMinutes*60)))

	if len(s.PCApps) == 0 && len(s.MobileApps) == 0 {
		output += "No activity recorded for this day.\n"
		return output
	}

	printApps := func(header string, apps []models.NameMinutes) string {
		if len(apps) == 0 {
			return ""
		}
		out := fmt.Sprintf("%s\n", header)
		for _, app := range apps {
			out += fmt.Sprintf("  %-40s %8.1fm\n", truncate(app.Name, 40), app.Minutes)
		}
		return out + "\n"
	}
	output += printApps("PC Applications:", s.PCApps)
	output += printApps("Mobile Applications:", s.MobileApps)
	output += printApps("Games:", s.Games)

	if len(s.Books) > 0 {
		output += "Books:\n"
		for _, book := range s.Books {
			output += fmt.Sprintf("  %-40s %8.1fm (%.1f%%)\n",
				truncate(book.Title, 40), book.TimeSpentSec/60, book.Percent)
		}
	}

	return output
}

// FormatJSON formats any report payload as indented JSON.
func (r *Reporter) FormatJSON(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(out), nil
}

// truncate truncates a string to the specified length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
