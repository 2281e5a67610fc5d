package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// SummaryMap is a name -> rounded-minutes tally stored as a TEXT column
// (app, game and book summaries).
type SummaryMap map[string]int

func (m SummaryMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *SummaryMap) Scan(value any) error {
	if value == nil {
		*m = SummaryMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for SummaryMap: %T", value)
	}
	if len(data) == 0 {
		*m = SummaryMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// LocationMinutes is the office/home/outside split for one device class.
type LocationMinutes struct {
	Office  int `json:"office"`
	Home    int `json:"home"`
	Outside int `json:"outside"`
}

// LocationBreakdown splits location minutes by device class.
type LocationBreakdown struct {
	PC     LocationMinutes `json:"pc"`
	Mobile LocationMinutes `json:"mobile"`
}

func (b LocationBreakdown) Value() (driver.Value, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (b *LocationBreakdown) Scan(value any) error {
	if value == nil {
		*b = LocationBreakdown{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for LocationBreakdown: %T", value)
	}
	if len(data) == 0 {
		*b = LocationBreakdown{}
		return nil
	}
	return json.Unmarshal(data, b)
}

// DailySummary is the persisted, rounded projection of one day's stats.
// Once written, it is the only obtainable source for that date: the raw
// metric rows are deleted right after a confirmed insert.
type DailySummary struct {
	ID                  uint              `gorm:"primaryKey" json:"id"`
	Date                string            `gorm:"not null;uniqueIndex" json:"date"` // YYYY-MM-DD
	PCTotalMinutes      int               `gorm:"column:pc_total_minutes" json:"pc_total_minutes"`
	MobileTotalMinutes  int               `json:"mobile_total_minutes"`
	ScreentimeMinutes   int               `json:"screentime_minutes"`
	SimultaneousMinutes int               `json:"simultaneous_minutes"`
	ReadingMinutes      int               `json:"reading_minutes"`
	GamingMinutes       int               `json:"gaming_minutes"`
	OfficeMinutes       int               `json:"office_minutes"`
	HomeMinutes         int               `json:"home_minutes"`
	OutsideMinutes      int               `json:"outside_minutes"`
	PCAppSummary        SummaryMap        `gorm:"column:pc_app_summary;type:text" json:"pc_app_summary"`
	MobileAppSummary    SummaryMap        `gorm:"type:text" json:"mobile_app_summary"`
	GamesSummary        SummaryMap        `gorm:"type:text" json:"games_summary"`
	BooksSummary        SummaryMap        `gorm:"type:text" json:"books_summary"`
	LocationBreakdown   LocationBreakdown `gorm:"type:text" json:"location_breakdown"`
	CreatedAt           time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// PeriodSummary aggregates the daily summaries of one week, month or
// year. The same struct backs all three tables; Anchor holds the period
// key (week/month start date, or the year as a string). Rows are upserted
// by anchor, so re-running a rollup is idempotent.
type PeriodSummary struct {
	ID                        uint       `gorm:"primaryKey" json:"id"`
	Anchor                    string     `gorm:"not null;uniqueIndex" json:"anchor"`
	TotalScreentimeMinutes    int        `json:"total_screentime_minutes"`
	AvgDailyScreentimeMinutes int        `json:"avg_daily_screentime_minutes"`
	TotalPCMinutes            int        `gorm:"column:total_pc_minutes" json:"total_pc_minutes"`
	TotalMobileMinutes        int        `json:"total_mobile_minutes"`
	TotalReadingMinutes       int        `json:"total_reading_minutes"`
	TotalGamingMinutes        int        `json:"total_gaming_minutes"`
	DayCount                  int        `json:"day_count"`
	PCAppSummary              SummaryMap `gorm:"column:pc_app_summary;type:text" json:"pc_app_summary"`
	MobileAppSummary          SummaryMap `gorm:"type:text" json:"mobile_app_summary"`
	GamesSummary              SummaryMap `gorm:"type:text" json:"games_summary"`
	BooksSummary              SummaryMap `gorm:"type:text" json:"books_summary"`
	UpdatedAt                 time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// WeeklySummary, MonthlySummary and YearlySummary give PeriodSummary a
// distinct table per period type.
type WeeklySummary struct{ PeriodSummary }

func (WeeklySummary) TableName() string { return "weekly_summaries" }

type MonthlySummary struct{ PeriodSummary }

func (MonthlySummary) TableName() string { return "monthly_summaries" }

type YearlySummary struct{ PeriodSummary }

func (YearlySummary) TableName() string { return "yearly_summaries" }
