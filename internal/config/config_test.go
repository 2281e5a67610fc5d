package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Web.Port = 0 }},
		{"port too high", func(c *Config) { c.Web.Port = 70000 }},
		{"empty host", func(c *Config) { c.Web.Host = "" }},
		{"bad timezone", func(c *Config) { c.Stats.Timezone = "Mars/Olympus" }},
		{"zero mobile gap", func(c *Config) { c.Stats.MaxMobileGap = 0 }},
		{"zero book window", func(c *Config) { c.Stats.BookMatchWindow = 0 }},
		{"zero events limit", func(c *Config) { c.Stats.RecentEventsLimit = 0 }},
		{"missing mobile id", func(c *Config) { c.Devices.MobileID = "" }},
		{"bad schedule time", func(c *Config) {
			c.Summarizer.ScheduleEnabled = true
			c.Summarizer.ScheduleAt = "25:99"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_ScheduleCheckedOnlyWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.Summarizer.ScheduleEnabled = false
	cfg.Summarizer.ScheduleAt = "not a time"
	assert.NoError(t, cfg.Validate())
}

func TestPriorityFor(t *testing.T) {
	cfg := Default()

	assert.Equal(t, PriorityDesktop, cfg.PriorityFor("PC Escritorio"))
	assert.Equal(t, PriorityMobile, cfg.PriorityFor("oppo-5-lite"))
	assert.Equal(t, PriorityLaptop, cfg.PriorityFor("Lenovo Yoga 7 Slim"))
	// Unknown agents fall into the laptop class.
	assert.Equal(t, PriorityLaptop, cfg.PriorityFor("some-new-agent"))
}

func TestPCDeviceIDs(t *testing.T) {
	ids := Default().PCDeviceIDs()

	require.Len(t, ids, 3)
	assert.Contains(t, ids, "PC Escritorio")
	assert.Contains(t, ids, "windows-pc")
	assert.NotContains(t, ids, "oppo-5-lite")
}

func TestDisplayName(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Lenovo Yoga 7 Slim", cfg.DisplayName("windows-pc"))
	assert.Equal(t, "PC Escritorio", cfg.DisplayName("PC Escritorio"))
}

func TestString_RedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Summarizer.Secret = "hunter2"
	cfg.Summarizer.IngestSecret = "hunter3"

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "hunter3")
	assert.True(t, strings.Contains(out, "(set)"))
}
