package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load builds the configuration from defaults, an optional YAML file and
// TRACKER_* environment variables (highest precedence).
func Load(configPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	bindDefaults(v, cfg)

	v.BindEnv("database.path", "TRACKER_DB_PATH")
	v.BindEnv("web.host", "TRACKER_WEB_HOST")
	v.BindEnv("web.port", "TRACKER_WEB_PORT")
	v.BindEnv("stats.timezone", "TRACKER_TIMEZONE")
	v.BindEnv("stats.maxMobileGapMinutes", "TRACKER_MAX_MOBILE_GAP_MINUTES")
	v.BindEnv("stats.bookMatchWindowMinutes", "TRACKER_BOOK_WINDOW_MINUTES")
	v.BindEnv("stats.recentEventsLimit", "TRACKER_RECENT_EVENTS_LIMIT")
	v.BindEnv("summarizer.secret", "TRACKER_SUMMARIZER_SECRET")
	v.BindEnv("summarizer.ingestSecret", "TRACKER_INGEST_SECRET")
	v.BindEnv("summarizer.scheduleEnabled", "TRACKER_SCHEDULE_ENABLED")
	v.BindEnv("summarizer.scheduleAt", "TRACKER_SCHEDULE_AT")
	v.BindEnv("log.level", "TRACKER_LOG_LEVEL")
	v.BindEnv("log.pretty", "TRACKER_LOG_PRETTY")

	if configPath != "" {
		filename := filepath.Base(configPath)
		v.AddConfigPath(filepath.Dir(configPath))
		v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	applyViper(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("web.host", cfg.Web.Host)
	v.SetDefault("web.port", cfg.Web.Port)
	v.SetDefault("stats.timezone", cfg.Stats.Timezone)
	v.SetDefault("stats.maxMobileGapMinutes", int(cfg.Stats.MaxMobileGap.Minutes()))
	v.SetDefault("stats.bookMatchWindowMinutes", int(cfg.Stats.BookMatchWindow.Minutes()))
	v.SetDefault("stats.recentEventsLimit", cfg.Stats.RecentEventsLimit)
	v.SetDefault("devices.desktopId", cfg.Devices.DesktopID)
	v.SetDefault("devices.laptopIds", cfg.Devices.LaptopIDs)
	v.SetDefault("devices.mobileId", cfg.Devices.MobileID)
	v.SetDefault("devices.readerId", cfg.Devices.ReaderID)
	v.SetDefault("devices.wearableId", cfg.Devices.WearableID)
	v.SetDefault("location.officeSsid", cfg.Location.OfficeSSID)
	v.SetDefault("location.homeSsids", cfg.Location.HomeSSIDs)
	v.SetDefault("location.placeholderSsids", cfg.Location.PlaceholderSSIDs)
	v.SetDefault("apps.ignored", cfg.Apps.Ignored)
	v.SetDefault("apps.games", cfg.Apps.Games)
	v.SetDefault("apps.readerNames", cfg.Apps.ReaderNames)
	v.SetDefault("apps.readerPackage", cfg.Apps.ReaderPackage)
	v.SetDefault("summarizer.secret", cfg.Summarizer.Secret)
	v.SetDefault("summarizer.ingestSecret", cfg.Summarizer.IngestSecret)
	v.SetDefault("summarizer.scheduleEnabled", cfg.Summarizer.ScheduleEnabled)
	v.SetDefault("summarizer.scheduleAt", cfg.Summarizer.ScheduleAt)
	v.SetDefault("log.level", cfg.LogLevel)
	v.SetDefault("log.pretty", cfg.LogPretty)
}

func applyViper(v *viper.Viper, cfg *Config) {
	cfg.Database.Path = v.GetString("database.path")
	cfg.Web.Host = v.GetString("web.host")
	cfg.Web.Port = v.GetInt("web.port")
	cfg.Stats.Timezone = v.GetString("stats.timezone")
	cfg.Stats.MaxMobileGap = time.Duration(v.GetInt("stats.maxMobileGapMinutes")) * time.Minute
	cfg.Stats.BookMatchWindow = time.Duration(v.GetInt("stats.bookMatchWindowMinutes")) * time.Minute
	cfg.Stats.RecentEventsLimit = v.GetInt("stats.recentEventsLimit")
	cfg.Devices.DesktopID = v.GetString("devices.desktopId")
	cfg.Devices.LaptopIDs = v.GetStringSlice("devices.laptopIds")
	cfg.Devices.MobileID = v.GetString("devices.mobileId")
	cfg.Devices.ReaderID = v.GetString("devices.readerId")
	cfg.Devices.WearableID = v.GetString("devices.wearableId")
	cfg.Location.OfficeSSID = v.GetString("location.officeSsid")
	cfg.Location.HomeSSIDs = v.GetStringSlice("location.homeSsids")
	cfg.Location.PlaceholderSSIDs = v.GetStringSlice("location.placeholderSsids")
	cfg.Apps.Ignored = v.GetStringSlice("apps.ignored")
	if games := v.GetStringMapString("apps.games"); len(games) > 0 {
		cfg.Apps.Games = games
	}
	cfg.Apps.ReaderNames = v.GetStringSlice("apps.readerNames")
	cfg.Apps.ReaderPackage = v.GetString("apps.readerPackage")
	cfg.Summarizer.Secret = v.GetString("summarizer.secret")
	cfg.Summarizer.IngestSecret = v.GetString("summarizer.ingestSecret")
	cfg.Summarizer.ScheduleEnabled = v.GetBool("summarizer.scheduleEnabled")
	cfg.Summarizer.ScheduleAt = v.GetString("summarizer.scheduleAt")
	cfg.LogLevel = v.GetString("log.level")
	cfg.LogPretty = v.GetBool("log.pretty")
}
