package config

import (
	"fmt"
	"strings"
	"time"
)

// Device priority levels used for minute-occupancy arbitration. A higher
// level masks a lower one within the same minute: when the desktop and
// the phone are both active, attention is assumed to be on the desktop.
const (
	PriorityNone    = 0
	PriorityMobile  = 1
	PriorityLaptop  = 2
	PriorityDesktop = 3
)

// Config holds all application configuration.
type Config struct {
	Database   DatabaseConfig
	Web        WebConfig
	Stats      StatsConfig
	Devices    DevicesConfig
	Location   LocationConfig
	Apps       AppsConfig
	Summarizer SummarizerConfig
	LogLevel   string
	LogPretty  bool
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// WebConfig holds web server configuration.
type WebConfig struct {
	Host string
	Port int
}

// StatsConfig tunes the reduction engine.
type StatsConfig struct {
	Timezone string // IANA zone all calendar-day math happens in

	// MaxMobileGap caps a single inferred mobile duration. A gap longer
	// than this means the phone was idle between heartbeats, so the gap
	// counts as zero rather than inflating totals.
	MaxMobileGap time.Duration

	// MinMobileMark is the smallest inferred duration that claims a
	// timeline slot. Sub-5s samples are launcher flickers, not usage.
	MinMobileMark time.Duration

	// LastEventPlaceholder is the assumed duration of the final mobile
	// event of an already-completed day, whose end boundary was never
	// observed.
	LastEventPlaceholder time.Duration

	// BookMatchWindow is the symmetric window within which a reading
	// session is associated with the nearest book-progress event.
	BookMatchWindow time.Duration

	RecentEventsLimit int
}

// DevicesConfig maps device ids to classes and display names.
type DevicesConfig struct {
	DesktopID  string   // priority 3
	LaptopIDs  []string // priority 2, includes legacy agent ids
	MobileID   string
	ReaderID   string
	WearableID string

	// Aliases renames a wire-level device id for display (the legacy
	// Windows agent reports a generic id).
	Aliases map[string]string
}

// LocationConfig maps Wi-Fi network names to location buckets. Matchers
// are consulted in order: exact office SSID, then home SSIDs (substring
// match), everything else is outside.
type LocationConfig struct {
	OfficeSSID string
	HomeSSIDs  []string

	// PlaceholderSSIDs are values the agents report when no usable SSID
	// exists; for mobile they classify as outside, for the stationary
	// desktop as home.
	PlaceholderSSIDs []string
}

// AppsConfig holds app-name classification tables.
type AppsConfig struct {
	// Ignored app names contribute zero to every tally (idle and
	// lock-screen surrogates). They are still consumed per event so
	// they cannot skew duration inference.
	Ignored []string

	// Games maps an exact process name to its display title.
	Games map[string]string

	// ReaderNames are case-insensitive substrings of e-reader app names;
	// ReaderPackage matches the reader's package identifier.
	ReaderNames   []string
	ReaderPackage string
}

// SummarizerConfig configures the daily compaction job.
type SummarizerConfig struct {
	Secret       string // bearer token for the trigger endpoint
	IngestSecret string // shared secret for the wearable ingest shim

	// When ScheduleEnabled is set the server also runs the job
	// in-process once a day at ScheduleAt (HH:MM), instead of relying
	// solely on an external cron hitting the endpoint.
	ScheduleEnabled bool
	ScheduleAt      string
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // empty means ~/.config/tracker/tracker.db
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 8484,
		},
		Stats: StatsConfig{
			Timezone:             "America/Santiago",
			MaxMobileGap:         30 * time.Minute,
			MinMobileMark:        5 * time.Second,
			LastEventPlaceholder: 30 * time.Second,
			BookMatchWindow:      20 * time.Minute,
			RecentEventsLimit:    20,
		},
		Devices: DevicesConfig{
			DesktopID:  "PC Escritorio",
			LaptopIDs:  []string{"Lenovo Yoga 7 Slim", "windows-pc"},
			MobileID:   "oppo-5-lite",
			ReaderID:   "moon-reader",
			WearableID: "xiaomi-band",
			Aliases: map[string]string{
				"windows-pc": "Lenovo Yoga 7 Slim",
			},
		},
		Location: LocationConfig{
			OfficeSSID:       "GeCo",
			HomeSSIDs:        []string{"Depto 402", "Ethernet/Off"},
			PlaceholderSSIDs: []string{"Sin SSID", "Desconocido", "Ethernet"},
		},
		Apps: AppsConfig{
			Ignored: []string{
				"Idle (Inactivo)",
				"Lanzador del sistema",
				"Pantalla Apagada",
				"Reloj",
				"Clock",
				"Barra lateral inteligente",
			},
			Games: map[string]string{
				"League of Legends": "League of Legends",
				"Endfield":          "Arknights: Endfield",
			},
			ReaderNames:   []string{"moon+"},
			ReaderPackage: "moonreader",
		},
		Summarizer: SummarizerConfig{
			ScheduleEnabled: false,
			ScheduleAt:      "03:30",
		},
		LogLevel:  "info",
		LogPretty: false,
	}
}

// PCDeviceIDs returns every PC-class device id (desktop plus laptops).
func (c *Config) PCDeviceIDs() []string {
	ids := make([]string, 0, len(c.Devices.LaptopIDs)+1)
	ids = append(ids, c.Devices.LaptopIDs...)
	ids = append(ids, c.Devices.DesktopID)
	return ids
}

// PriorityFor resolves the occupancy priority of a device id.
func (c *Config) PriorityFor(deviceID string) int {
	switch {
	case deviceID == c.Devices.DesktopID:
		return PriorityDesktop
	case deviceID == c.Devices.MobileID:
		return PriorityMobile
	default:
		return PriorityLaptop
	}
}

// DisplayName resolves the display name of a device id.
func (c *Config) DisplayName(deviceID string) string {
	if alias, ok := c.Devices.Aliases[deviceID]; ok {
		return alias
	}
	return deviceID
}

// TimeLocation loads the configured timezone.
func (c *Config) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Stats.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Stats.Timezone, err)
	}
	return loc, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}
	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}
	if _, err := c.TimeLocation(); err != nil {
		return err
	}
	if c.Stats.MaxMobileGap <= 0 {
		return fmt.Errorf("max mobile gap must be positive")
	}
	if c.Stats.BookMatchWindow <= 0 {
		return fmt.Errorf("book match window must be positive")
	}
	if c.Stats.RecentEventsLimit < 1 {
		return fmt.Errorf("recent events limit must be at least 1")
	}
	if c.Devices.DesktopID == "" || c.Devices.MobileID == "" || c.Devices.ReaderID == "" {
		return fmt.Errorf("desktop, mobile and reader device ids are required")
	}
	if c.Summarizer.ScheduleEnabled {
		if _, err := time.Parse("15:04", c.Summarizer.ScheduleAt); err != nil {
			return fmt.Errorf("schedule time must be HH:MM, got %q", c.Summarizer.ScheduleAt)
		}
	}
	return nil
}

// String returns a printable representation of the config (secrets
// redacted).
func (c *Config) String() string {
	redact := func(s string) string {
		if s == "" {
			return "(unset)"
		}
		return "(set)"
	}
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Web:
    Host: %s
    Port: %d
  Stats:
    Timezone: %s
    Max Mobile Gap: %v
    Book Match Window: %v
  Devices:
    Desktop: %s
    Laptops: %s
    Mobile: %s
    Reader: %s
  Summarizer:
    Secret: %s
    Ingest Secret: %s
    Schedule: enabled=%v at=%s`,
		c.Database.Path,
		c.Web.Host,
		c.Web.Port,
		c.Stats.Timezone,
		c.Stats.MaxMobileGap,
		c.Stats.BookMatchWindow,
		c.Devices.DesktopID,
		strings.Join(c.Devices.LaptopIDs, ", "),
		c.Devices.MobileID,
		c.Devices.ReaderID,
		redact(c.Summarizer.Secret),
		redact(c.Summarizer.IngestSecret),
		c.Summarizer.ScheduleEnabled,
		c.Summarizer.ScheduleAt,
	)
}
