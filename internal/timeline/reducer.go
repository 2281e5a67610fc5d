// Package timeline reduces a day's raw device events into two parallel
// measures of activity: a minute-resolution occupancy map with
// device-priority arbitration, and an exact interval list whose merged
// union is the headline screen-time figure. The two can disagree
// slightly at minute boundaries; that is accepted.
package timeline

import (
	"math"
	"sort"
	"time"

	"github.com/fna/tracker/internal/config"
	"github.com/fna/tracker/internal/models"
)

const minutesPerDay = 24 * 60

// Interval is one contiguous span of device-active time from a single
// event, in epoch milliseconds. Never persisted.
type Interval struct {
	Start int64
	End   int64
}

// Reducer accumulates occupancy and intervals for one calendar day. Not
// safe for concurrent use; each statistics request builds its own.
type Reducer struct {
	loc       *time.Location
	occupancy [minutesPerDay]int
	intervals []Interval
}

// New returns a Reducer operating in the given local timezone.
func New(loc *time.Location) *Reducer {
	return &Reducer{loc: loc}
}

// Mark records an event of the given duration and priority level. The
// duration is rounded up to whole minutes for slot occupancy (partial
// activity still claims the minute), each claimed slot keeps the highest
// priority ever applied, and activity crossing midnight is truncated at
// the day boundary. The exact interval is kept separately for
// deduplication.
func (r *Reducer) Mark(start time.Time, durationSec float64, level int) {
	if durationSec <= 0 || level <= config.PriorityNone {
		return
	}

	local := start.In(r.loc)
	startMin := local.Hour()*60 + local.Minute()
	slots := int(math.Ceil(durationSec / 60))

	for i := 0; i < slots; i++ {
		min := startMin + i
		if min >= minutesPerDay {
			break
		}
		if level > r.occupancy[min] {
			r.occupancy[min] = level
		}
	}

	startMs := start.UnixMilli()
	r.intervals = append(r.intervals, Interval{
		Start: startMs,
		End:   startMs + int64(durationSec*1000),
	})
}

// DedupedScreenTime merges overlapping intervals and returns the total
// covered duration. The result never exceeds the plain sum of interval
// durations, and equals it only when no two intervals overlap.
func (r *Reducer) DedupedScreenTime() time.Duration {
	return MergeIntervals(r.intervals)
}

// MergeIntervals sweep-merges a set of intervals and sums the merged
// windows.
func MergeIntervals(intervals []Interval) time.Duration {
	if len(intervals) == 0 {
		return 0
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var totalMs int64
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start < current.End {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		totalMs += current.End - current.Start
		current = next
	}
	totalMs += current.End - current.Start

	return time.Duration(totalMs) * time.Millisecond
}

// Level returns the occupancy level of a minute-of-day.
func (r *Reducer) Level(minute int) int {
	if minute < 0 || minute >= minutesPerDay {
		return config.PriorityNone
	}
	return r.occupancy[minute]
}

// PCMinutes counts minutes claimed by a PC-class device (level >= 2).
func (r *Reducer) PCMinutes() int {
	n := 0
	for _, level := range r.occupancy {
		if level >= config.PriorityLaptop {
			n++
		}
	}
	return n
}

// MobileMinutes counts minutes claimed by the phone and nothing above it.
func (r *Reducer) MobileMinutes() int {
	n := 0
	for _, level := range r.occupancy {
		if level == config.PriorityMobile {
			n++
		}
	}
	return n
}

// HourlyBuckets folds the occupancy map into 24 chart-ready buckets of
// PC-attributed vs mobile-attributed minutes.
func (r *Reducer) HourlyBuckets() []models.HourBucket {
	buckets := make([]models.HourBucket, 24)
	for h := range buckets {
		buckets[h].Hour = time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15:04")
	}
	for min, level := range r.occupancy {
		switch {
		case level >= config.PriorityLaptop:
			buckets[min/60].PC++
		case level == config.PriorityMobile:
			buckets[min/60].Mobile++
		}
	}
	return buckets
}

// Intervals returns the raw interval list accumulated so far.
func (r *Reducer) Intervals() []Interval {
	return r.intervals
}
