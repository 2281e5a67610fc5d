package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fna/tracker/internal/config"
	"github.com/fna/tracker/internal/models"
	"github.com/fna/tracker/internal/timeline"
	"github.com/fna/tracker/pkg/timeutil"
)

// locationAccum tracks raw presence minutes per bucket, split by device
// class, before rounding.
type locationAccum struct {
	office, home, outside float64
}

func (l *locationAccum) add(bucket string, minutes float64) {
	switch bucket {
	case LocationOffice:
		l.office += minutes
	case LocationHome:
		l.home += minutes
	default:
		l.outside += minutes
	}
}

// aggregator classifies one day's events into app, game, reading and
// location tallies while feeding the timeline reducer. One instance per
// snapshot computation; it carries no shared state.
type aggregator struct {
	cfg     *config.Config
	cls     *classifier
	loc     *time.Location
	reducer *timeline.Reducer

	// now anchors open-ended durations; isToday switches the policy for
	// the last mobile event of the day.
	now     time.Time
	isToday bool

	pcSeconds     float64
	mobileSeconds float64
	readingMin    float64
	gamingSeconds float64

	pcApps         map[string]float64 // minutes
	pcAppsByDevice map[string]map[string]float64
	mobileApps     map[string]float64
	games          map[string]float64 // seconds by display title
	bookTime       map[string]float64 // seconds by cleaned title

	rawLocation locationAccum
	pcLocation  locationAccum
	mobLocation locationAccum

	events     []models.ActivityEntry
	lastPC     *models.PCStatus
	lastMobile *models.MobileStatus
}

func newAggregator(cfg *config.Config, loc *time.Location, now time.Time, isToday bool) *aggregator {
	return &aggregator{
		cfg:            cfg,
		cls:            newClassifier(cfg),
		loc:            loc,
		reducer:        timeline.New(loc),
		now:            now,
		isToday:        isToday,
		pcApps:         make(map[string]float64),
		pcAppsByDevice: make(map[string]map[string]float64),
		mobileApps:     make(map[string]float64),
		games:          make(map[string]float64),
		bookTime:       make(map[string]float64),
	}
}

func (a *aggregator) addPCApp(device, app string, minutes float64) {
	a.pcApps[app] += minutes
	byDevice, ok := a.pcAppsByDevice[device]
	if !ok {
		byDevice = make(map[string]float64)
		a.pcAppsByDevice[device] = byDevice
	}
	byDevice[app] += minutes
}

// processPC folds PC-class events into the tallies. Both wire shapes are
// supported: the batched one-minute summary and the legacy one-row-per-
// sampled-minute shape.
func (a *aggregator) processPC(events []models.Metric) {
	// Legacy rows are coalesced into one log entry per run of the same
	// foreground app.
	var (
		runApp   string
		runStart time.Time
		runCount int
		runID    int64
	)
	flushRun := func(device string) {
		if runCount == 0 {
			return
		}
		a.events = append(a.events, models.ActivityEntry{
			ID:       runID,
			Time:     runStart,
			Device:   device,
			Detail:   runApp,
			Duration: timeutil.FormatClock(float64(runCount) * 60),
			Type:     "pc",
		})
		runCount = 0
	}

	var lastLegacyDevice string
	for _, row := range events {
		device := a.cfg.DisplayName(row.DeviceID)
		priority := a.cfg.PriorityFor(row.DeviceID)

		if _, ok := row.Metadata.Float("battery_level"); ok {
			battery, _ := row.Metadata.Float("battery_level")
			a.lastPC = &models.PCStatus{
				Battery:    int(battery),
				Wifi:       row.Metadata.String("wifi_ssid", UnknownName),
				LastSeen:   row.CreatedAt,
				IsCharging: row.Metadata.Bool("is_charging"),
			}
		}

		if row.MetricType == "usage_summary_1min" {
			flushRun(lastLegacyDevice)
			a.processPCBatch(row, device, priority)
			continue
		}

		// Legacy shape: value is sampled minutes of a single process.
		minutes := row.Value
		if minutes <= 0 {
			minutes = 1
		}
		a.reducer.Mark(row.CreatedAt, minutes*60, priority)
		a.pcSeconds += minutes * 60

		wifi := row.Metadata.String("wifi_ssid", "")
		bucket := a.cls.locateDevice(row.DeviceID, wifi)
		a.rawLocation.add(bucket, minutes)
		a.pcLocation.add(bucket, minutes)

		app := resolveLegacyAppName(
			row.Metadata.String("process_name", ""),
			row.Metadata.String("window_title", ""),
		)
		if !a.cls.isIgnored(app) {
			a.addPCApp(device, app, minutes)
		}

		if app != runApp || device != lastLegacyDevice {
			flushRun(lastLegacyDevice)
			runApp = app
			runStart = row.CreatedAt
			runID = int64(row.ID)
		}
		runCount++
		lastLegacyDevice = device
	}
	flushRun(lastLegacyDevice)
}

// processPCBatch handles one batched usage summary: every breakdown entry
// is a candidate app with its active seconds inside a ~1 minute window.
func (a *aggregator) processPCBatch(row models.Metric, device string, priority int) {
	var (
		batchSeconds float64
		details      []string
	)
	breakdown := row.Metadata.Breakdown()
	apps := make([]string, 0, len(breakdown))
	for app := range breakdown {
		apps = append(apps, app)
	}
	sort.Strings(apps) // deterministic log detail order

	for _, app := range apps {
		sec := breakdown[app]
		if sec <= 0 || a.cls.isIgnored(app) {
			continue
		}
		batchSeconds += sec
		clean := cleanPCAppName(app)

		if title, ok := a.cls.gameTitle(clean); ok {
			a.gamingSeconds += sec
			a.games[title] += sec
		}

		a.addPCApp(device, clean, sec/60)
		details = append(details, fmt.Sprintf("%s (%.0fs)", clean, sec))
	}

	a.pcSeconds += batchSeconds
	if batchSeconds > 0 {
		a.reducer.Mark(row.CreatedAt, batchSeconds, priority)
	}

	wifi := row.Metadata.String("wifi_ssid", "")
	bucket := a.cls.locateDevice(row.DeviceID, wifi)
	activeMin := batchSeconds / 60
	a.rawLocation.add(bucket, activeMin)
	a.pcLocation.add(bucket, activeMin)

	if len(details) > 0 {
		entry := models.ActivityEntry{
			ID:       int64(row.ID),
			Time:     row.CreatedAt,
			Device:   device,
			Detail:   strings.Join(details, ", "),
			Duration: "1m",
			Type:     "pc",
			Wifi:     wifi,
			Location: bucket,
		}
		if battery, ok := row.Metadata.Float("battery_level"); ok {
			b := int(battery)
			entry.Battery = &b
		}
		a.events = append(a.events, entry)
	}
}

// mobileLogBucket coalesces mobile samples into one log entry per
// wall-clock minute.
type mobileLogBucket struct {
	details  []string
	wifi     string
	totalSec float64
}

// processMobile folds mobile samples into the tallies. Samples are
// point-in-time, so duration is inferred: the OS screen-time counter
// difference when both neighbors carry it, otherwise the wall-clock gap
// to the next sample.
func (a *aggregator) processMobile(events, reading []models.Metric) {
	logBuffer := make(map[int64]*mobileLogBucket)
	var logOrder []int64

	for i, row := range events {
		a.lastMobile = &models.MobileStatus{
			Wifi:     row.Metadata.String("wifi_ssid", UnknownName),
			LastSeen: row.CreatedAt,
		}

		var next *models.Metric
		if i+1 < len(events) {
			next = &events[i+1]
		}
		durationSec := a.inferMobileDuration(row, next)
		durationMin := durationSec / 60

		appName := row.Metadata.String("app_name", UnknownName)
		ignored := a.cls.isIgnored(appName)

		if !ignored && durationSec > a.cfg.Stats.MinMobileMark.Seconds() {
			a.reducer.Mark(row.CreatedAt, durationSec, config.PriorityMobile)
			a.mobileSeconds += durationSec
		}

		wifi := row.Metadata.String("wifi_ssid", "")
		bucket := a.cls.locate(wifi)
		a.rawLocation.add(bucket, durationMin)
		a.mobLocation.add(bucket, durationMin)

		if !ignored {
			a.mobileApps[appName] += durationMin

			minuteKey := row.CreatedAt.Truncate(time.Minute).UnixMilli()
			entry, ok := logBuffer[minuteKey]
			if !ok {
				entry = &mobileLogBucket{wifi: wifi}
				logBuffer[minuteKey] = entry
				logOrder = append(logOrder, minuteKey)
			}
			entry.details = append(entry.details, fmt.Sprintf("%s (%.0fs)", appName, durationSec))
			entry.totalSec += durationSec
		}

		if a.cls.isReading(appName, row.Metadata.String("package", "")) {
			// Reading accumulates outside the priority system: it can
			// co-occur with PC use without being masked.
			a.readingMin += durationMin
			if title := a.matchBook(row.CreatedAt, reading); title != UnknownName {
				a.bookTime[title] += durationSec
			}
		}
	}

	device := a.cfg.DisplayName(a.cfg.Devices.MobileID)
	for _, key := range logOrder {
		entry := logBuffer[key]
		ts := time.UnixMilli(key)
		a.events = append(a.events, models.ActivityEntry{
			ID:       key,
			Time:     ts,
			Device:   device,
			Detail:   strings.Join(entry.details, ", "),
			Duration: timeutil.FormatClock(entry.totalSec),
			Type:     "mobile",
			Wifi:     entry.wifi,
			Location: a.cls.locate(entry.wifi),
		})
	}
}

// inferMobileDuration derives the active duration of one mobile sample.
// The monotonic screen-time counter is preferred since it stays correct
// across app switches; the wall-clock gap is the fallback. Durations are
// clamped to [0, MaxMobileGap]: anything longer means the phone was idle
// between heartbeats and counts as zero.
func (a *aggregator) inferMobileDuration(row models.Metric, next *models.Metric) float64 {
	var durationSec float64

	switch {
	case next != nil:
		t1, ok1 := row.Metadata.Float("screen_time_today")
		t2, ok2 := next.Metadata.Float("screen_time_today")
		if ok1 && ok2 && t2 > t1 {
			durationSec = t2 - t1
		} else {
			durationSec = next.CreatedAt.Sub(row.CreatedAt).Seconds()
		}
	case a.isToday:
		durationSec = a.now.Sub(row.CreatedAt).Seconds()
	default:
		// A completed day's final sample has no observable end boundary.
		durationSec = a.cfg.Stats.LastEventPlaceholder.Seconds()
	}

	if durationSec < 0 || durationSec > a.cfg.Stats.MaxMobileGap.Seconds() {
		return 0
	}
	return durationSec
}

// matchBook attributes a reading sample to the temporally nearest
// book-progress event within the symmetric match window.
func (a *aggregator) matchBook(at time.Time, reading []models.Metric) string {
	window := a.cfg.Stats.BookMatchWindow
	best := UnknownName
	bestDelta := window + 1

	for _, row := range reading {
		delta := row.CreatedAt.Sub(at)
		if delta < 0 {
			delta = -delta
		}
		if delta <= window && delta < bestDelta {
			bestDelta = delta
			best = CleanBookTitle(row.Metadata.String("book_title", ""))
		}
	}
	return best
}

// simultaneousMinutes derives the device-overlap time, clamped at zero
// for floating-point safety.
func simultaneousMinutes(pcMin, mobileMin, screenMin float64) float64 {
	return math.Max(0, pcMin+mobileMin-screenMin)
}

// sortedNameMinutes converts a tally map into a descending listing.
func sortedNameMinutes(m map[string]float64) []models.NameMinutes {
	out := make([]models.NameMinutes, 0, len(m))
	for name, minutes := range m {
		out = append(out, models.NameMinutes{Name: name, Minutes: minutes})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Name < out[j].Name
	})
	return out
}
