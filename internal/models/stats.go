package models

import "time"

// NameMinutes is one entry of a sorted per-name time listing.
type NameMinutes struct {
	Name    string  `json:"name"`
	Minutes float64 `json:"minutes"`
}

// BookStat pairs a book with its last known progress and the reading time
// attributed to it today.
type BookStat struct {
	Title        string  `json:"title"`
	Percent      float64 `json:"percent"`
	TimeSpentSec float64 `json:"time_spent_sec"`
}

// HourBucket is one bar of the daily activity chart: minutes attributed
// to PC-class vs mobile-class occupancy within that hour.
type HourBucket struct {
	Hour   string `json:"hour"` // "00:00" .. "23:00"
	PC     int    `json:"pc"`
	Mobile int    `json:"mobile"`
}

// ActivityEntry is one line of the recent-activity log.
type ActivityEntry struct {
	ID       int64     `json:"id"`
	Time     time.Time `json:"time"`
	Device   string    `json:"device"`
	Detail   string    `json:"detail"`
	Duration string    `json:"duration"`
	Type     string    `json:"type"` // "pc", "mobile" or "reading"
	Battery  *int      `json:"battery,omitempty"`
	Wifi     string    `json:"wifi,omitempty"`
	Location string    `json:"location,omitempty"`
}

// PCStatus is the last known PC heartbeat state.
type PCStatus struct {
	Battery    int       `json:"battery"`
	Wifi       string    `json:"wifi"`
	LastSeen   time.Time `json:"last_seen"`
	IsCharging bool      `json:"is_charging"`
}

// MobileStatus is the last known mobile state.
type MobileStatus struct {
	Wifi     string    `json:"wifi"`
	LastSeen time.Time `json:"last_seen"`
}

// LocationStats holds the raw (non-deduplicated) presence minutes per
// location bucket across all devices.
type LocationStats struct {
	OfficeMinutes  float64 `json:"office_minutes"`
	HomeMinutes    float64 `json:"home_minutes"`
	OutsideMinutes float64 `json:"outside_minutes"`
}

// QueryInfo records how a snapshot was resolved, mirrored into API
// responses for debugging timezone/range issues.
type QueryInfo struct {
	ServerTime time.Time `json:"server_time"`
	QueryStart time.Time `json:"query_start"`
	QueryEnd   time.Time `json:"query_end"`
	Timezone   string    `json:"timezone"`
}

// DailyStats is the immutable statistics snapshot for one calendar day in
// the configured timezone. PCTotalMinutes and MobileTotalMinutes are raw
// per-device sums; ScreenTimeMinutes is the deduplicated interval union,
// and SimultaneousMinutes the overlap between the two measures.
type DailyStats struct {
	Date                string                   `json:"date"`
	PCTotalMinutes      float64                  `json:"pc_total_minutes"`
	MobileTotalMinutes  float64                  `json:"mobile_total_minutes"`
	ScreenTimeMinutes   float64                  `json:"screen_time_minutes"`
	SimultaneousMinutes float64                  `json:"simultaneous_minutes"`
	ReadingMinutes      float64                  `json:"reading_minutes"`
	GamingMinutes       float64                  `json:"gaming_minutes"`
	Books               []BookStat               `json:"books_read_today"`
	Games               []NameMinutes            `json:"games_played_today"`
	Timeline            []HourBucket             `json:"activity_timeline"`
	PCApps              []NameMinutes            `json:"pc_apps"`
	PCAppsByDevice      map[string][]NameMinutes `json:"pc_apps_by_device"`
	MobileApps          []NameMinutes            `json:"mobile_apps"`
	RecentEvents        []ActivityEntry          `json:"recent_events"`
	Location            LocationStats            `json:"location_stats"`
	LocationByClass     LocationBreakdown        `json:"location_breakdown"`
	LastPCStatus        *PCStatus                `json:"last_pc_status"`
	LastMobileStatus    *MobileStatus            `json:"last_mobile_status"`
	Query               QueryInfo                `json:"query_info"`
}

// WeekDay is one cell of the weekly grid.
type WeekDay struct {
	Date          string  `json:"date"`
	PCMinutes     float64 `json:"pc_minutes"`
	MobileMinutes float64 `json:"mobile_minutes"`
	PrimaryDevice string  `json:"primary_device"` // "pc", "mobile" or "balanced"
}

// HistoryItem is one row of a weekly/monthly/yearly history listing.
type HistoryItem struct {
	Label           string        `json:"label"`
	DateKey         string        `json:"date_key"`
	TotalScreenTime int           `json:"total_screen_time"`
	PCMinutes       int           `json:"pc_minutes"`
	MobileMinutes   int           `json:"mobile_minutes"`
	ReadingMinutes  int           `json:"reading_minutes"`
	GamingMinutes   int           `json:"gaming_minutes"`
	TopApps         []NameMinutes `json:"top_apps"`
}

// HistoryTotals aggregates a whole history period.
type HistoryTotals struct {
	ScreenTime int           `json:"screen_time"`
	PC         int           `json:"pc"`
	Mobile     int           `json:"mobile"`
	Reading    int           `json:"reading"`
	Gaming     int           `json:"gaming"`
	Office     int           `json:"office"`
	Home       int           `json:"home"`
	Outside    int           `json:"outside"`
	TopApps    []NameMinutes `json:"top_apps"`
	TopGames   []NameMinutes `json:"top_games"`
	TopBooks   []NameMinutes `json:"top_books"`
}

// HistoryPayload is the full response of the history endpoint.
type HistoryPayload struct {
	Period      string        `json:"period"`
	DateLabel   string        `json:"date_label"`
	RequestDate string        `json:"request_date"`
	Items       []HistoryItem `json:"items"`
	Totals      HistoryTotals `json:"totals"`
}
