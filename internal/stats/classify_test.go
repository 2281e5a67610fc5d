package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fna/tracker/internal/config"
)

func TestLocate(t *testing.T) {
	c := newClassifier(config.Default())

	tests := []struct {
		wifi string
		want string
	}{
		{"GeCo", LocationOffice},
		{"Depto 402", LocationHome},
		{"Depto 402 5GHz", LocationHome}, // substring match
		{"Ethernet/Off", LocationHome},
		{"Starbucks", LocationOutside},
		{"", LocationOutside},
		{"Sin SSID", LocationOutside},
		{"Desconocido", LocationOutside},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.locate(tt.wifi), "wifi %q", tt.wifi)
	}
}

func TestLocateDevice_DesktopDefaultsToHome(t *testing.T) {
	cfg := config.Default()
	c := newClassifier(cfg)

	// The desktop has no Wi-Fi radio: off the office network it is at
	// home, never outside.
	assert.Equal(t, LocationHome, c.locateDevice(cfg.Devices.DesktopID, ""))
	assert.Equal(t, LocationHome, c.locateDevice(cfg.Devices.DesktopID, "Ethernet"))
	assert.Equal(t, LocationOffice, c.locateDevice(cfg.Devices.DesktopID, "GeCo"))

	// Laptops follow the plain mapping.
	assert.Equal(t, LocationOutside, c.locateDevice("Lenovo Yoga 7 Slim", ""))
}

func TestIsIgnored(t *testing.T) {
	c := newClassifier(config.Default())

	assert.True(t, c.isIgnored("Idle (Inactivo)"))
	assert.True(t, c.isIgnored("Pantalla Apagada"))
	assert.False(t, c.isIgnored("VS Code"))
	assert.False(t, c.isIgnored("idle (inactivo)")) // exact match only
}

func TestIsReading(t *testing.T) {
	c := newClassifier(config.Default())

	assert.True(t, c.isReading("Moon+ Reader Pro", ""))
	assert.True(t, c.isReading("moon+ reader", ""))
	assert.True(t, c.isReading("Lector", "com.flyersoft.moonreader"))
	assert.False(t, c.isReading("Chrome", "com.android.chrome"))
	assert.False(t, c.isReading("", ""))
}

func TestGameTitle(t *testing.T) {
	c := newClassifier(config.Default())

	title, ok := c.gameTitle("Endfield")
	assert.True(t, ok)
	assert.Equal(t, "Arknights: Endfield", title)

	_, ok = c.gameTitle("VS Code")
	assert.False(t, ok)
}

func TestResolveLegacyAppName(t *testing.T) {
	tests := []struct {
		app   string
		title string
		want  string
	}{
		{"firefox", "Mozilla Firefox", "firefox"},
		{"Unknown", "bash - Ubuntu", "Terminal (WSL)"},
		{"", "main.go - Code", "VS Code"},
		{"Idle", "something", "Sistema/Escritorio"},
		{"", "", "Sistema/Escritorio"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveLegacyAppName(tt.app, tt.title))
	}
}

func TestCleanBookTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"shadow-slave.epub", "Shadow Slave"},
		{"Shadow Slave 1501-1600", "Shadow Slave"},
		{"lord_of_the_mysteries.pdf", "Lord of the mysteries"},
		{"dungeon-crawler-carl.MOBI", "Dungeon crawler carl"},
		{"worm", "Worm"},
		{"", UnknownName},
		{".epub", UnknownName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanBookTitle(tt.in), "input %q", tt.in)
	}
}
