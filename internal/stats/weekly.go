package stats

import (
	"context"

	"github.com/fna/tracker/internal/models"
	"github.com/fna/tracker/pkg/timeutil"
)

// Primary-device classification for a day: pc when PC minutes exceed
// mobile minutes by more than 20%, mobile under the symmetric condition,
// balanced otherwise. A zero-activity day is always balanced.
const primaryDeviceRatio = 1.2

// Weekly builds the seven-day grid for the current week (Monday start).
// Days up to and including today are computed or read from persisted
// summaries; future days are reported as zero and balanced.
func (b *Builder) Weekly(ctx context.Context) ([]models.WeekDay, error) {
	now := b.Now().In(b.loc)
	weekStart := timeutil.WeekStart(now, b.loc)
	todayKey := timeutil.DateKey(now, b.loc)

	days := make([]models.WeekDay, 0, 7)
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		dateKey := timeutil.DateKey(day, b.loc)

		if dateKey > todayKey {
			days = append(days, models.WeekDay{Date: dateKey, PrimaryDevice: "balanced"})
			continue
		}

		snapshot, err := b.Daily(ctx, dateKey)
		if err != nil {
			return nil, err
		}
		days = append(days, models.WeekDay{
			Date:          dateKey,
			PCMinutes:     snapshot.PCTotalMinutes,
			MobileMinutes: snapshot.MobileTotalMinutes,
			PrimaryDevice: classifyPrimaryDevice(snapshot.PCTotalMinutes, snapshot.MobileTotalMinutes),
		})
	}
	return days, nil
}

func classifyPrimaryDevice(pcMin, mobileMin float64) string {
	switch {
	case pcMin == 0 && mobileMin == 0:
		return "balanced"
	case pcMin > mobileMin*primaryDeviceRatio:
		return "pc"
	case mobileMin > pcMin*primaryDeviceRatio:
		return "mobile"
	default:
		return "balanced"
	}
}
