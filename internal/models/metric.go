package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// JSONMap is a loosely-typed metadata bag stored as a TEXT column.
// Its shape depends on the writing device: PC batches carry a
// "breakdown" map, mobile samples carry "app_name"/"screen_time_today"/
// "wifi_ssid", reading progress carries "book_title", heartbeats carry
// "battery_level"/"is_charging".
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// String returns the string stored under key, or fallback when the key is
// absent or not a string. Metadata access must be total: a missing field
// is a sentinel, never an error.
func (m JSONMap) String(key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// Float returns the numeric value stored under key. JSON numbers decode as
// float64; numeric strings (the mobile agent sends counters as strings)
// are parsed too.
func (m JSONMap) Float(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (m JSONMap) Bool(key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Breakdown returns the per-app seconds map of a PC batch event.
func (m JSONMap) Breakdown() map[string]float64 {
	raw, ok := m["breakdown"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for app, v := range raw {
		switch n := v.(type) {
		case float64:
			out[app] = n
		case int:
			out[app] = float64(n)
		case string:
			var f float64
			if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
				out[app] = f
			}
		}
	}
	return out
}

// Metric is one raw device event. Rows are append-only and immutable;
// they exist until the day they belong to is compacted into a
// DailySummary, after which they are deleted.
type Metric struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
	DeviceID   string    `gorm:"not null;index" json:"device_id"`
	MetricType string    `gorm:"not null" json:"metric_type"`
	Value      float64   `gorm:"not null;default:0" json:"value"`
	Metadata   JSONMap   `gorm:"type:text" json:"metadata"`
}
