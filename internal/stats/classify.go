package stats

import (
	"regexp"
	"strings"

	"github.com/fna/tracker/internal/config"
)

// Location buckets derived from Wi-Fi network identity.
const (
	LocationOffice  = "office"
	LocationHome    = "home"
	LocationOutside = "outside"
)

// UnknownName is the sentinel for absent app names and unattributed books.
const UnknownName = "Desconocido"

// classifier resolves app names, game titles, reading apps and location
// buckets against the configured tables.
type classifier struct {
	cfg *config.Config
}

func newClassifier(cfg *config.Config) *classifier {
	return &classifier{cfg: cfg}
}

// isIgnored reports whether an app name is an idle/lock-screen surrogate.
// Ignored names contribute zero to every tally but are still consumed by
// iteration, so they cannot distort duration or priority logic.
func (c *classifier) isIgnored(app string) bool {
	for _, ignored := range c.cfg.Apps.Ignored {
		if app == ignored {
			return true
		}
	}
	return false
}

// gameTitle returns the display title when the process name is a known
// game, exact-match only.
func (c *classifier) gameTitle(app string) (string, bool) {
	title, ok := c.cfg.Apps.Games[app]
	return title, ok
}

// isReading reports whether a mobile sample belongs to the e-reader, by
// app name substring or package identifier.
func (c *classifier) isReading(appName, pkg string) bool {
	lower := strings.ToLower(appName)
	for _, sig := range c.cfg.Apps.ReaderNames {
		if strings.Contains(lower, strings.ToLower(sig)) {
			return true
		}
	}
	return pkg != "" && c.cfg.Apps.ReaderPackage != "" &&
		strings.Contains(pkg, c.cfg.Apps.ReaderPackage)
}

// locate maps a Wi-Fi SSID to a location bucket: exact office SSID wins,
// then the home SSID/alias list (substring match); everything else,
// including empty and placeholder SSIDs, is outside.
func (c *classifier) locate(wifi string) string {
	if wifi == "" || c.isPlaceholderSSID(wifi) {
		return LocationOutside
	}
	if wifi == c.cfg.Location.OfficeSSID {
		return LocationOffice
	}
	for _, home := range c.cfg.Location.HomeSSIDs {
		if wifi == home || strings.Contains(wifi, home) {
			return LocationHome
		}
	}
	return LocationOutside
}

// locateDevice applies per-device-class overrides on top of locate: the
// stationary desktop has no Wi-Fi radio, so off the office network it is
// at home, not outside.
func (c *classifier) locateDevice(deviceID, wifi string) string {
	loc := c.locate(wifi)
	if deviceID == c.cfg.Devices.DesktopID && loc == LocationOutside {
		return LocationHome
	}
	return loc
}

func (c *classifier) isPlaceholderSSID(wifi string) bool {
	for _, p := range c.cfg.Location.PlaceholderSSIDs {
		if wifi == p {
			return true
		}
	}
	return false
}

// cleanPCAppName normalizes wire-level process names for display.
func cleanPCAppName(app string) string {
	if app == "System/Unknown" {
		return "Sistema"
	}
	return app
}

// resolveLegacyAppName recovers an app name for the legacy single-sample
// shape, where the agent often reported Unknown/Idle with only a window
// title to go on.
func resolveLegacyAppName(app, title string) string {
	if app != "" && app != "Unknown" && app != "Idle" {
		return app
	}
	switch {
	case strings.Contains(title, "Ubuntu"):
		return "Terminal (WSL)"
	case strings.Contains(title, "Code"):
		return "VS Code"
	default:
		return "Sistema/Escritorio"
	}
}

var bookExtension = regexp.MustCompile(`(?i)\.(epub|pdf|mobi|azw3)$`)

// CleanBookTitle turns a reader-reported filename into a display title:
// extension stripped, separators spaced, first letter capitalized. Known
// long-running series keep their canonical title across filename drift.
func CleanBookTitle(title string) string {
	if title == "" {
		return UnknownName
	}
	clean := bookExtension.ReplaceAllString(title, "")
	lower := strings.ToLower(clean)
	if strings.Contains(lower, "shadow-slave") || strings.Contains(lower, "shadow slave") {
		return "Shadow Slave"
	}
	clean = strings.NewReplacer("-", " ", "_", " ").Replace(clean)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return UnknownName
	}
	return strings.ToUpper(clean[:1]) + clean[1:]
}
