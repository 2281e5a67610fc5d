package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fna/tracker/internal/config"
)

var santiago = mustLoad("America/Santiago")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, santiago)
}

func TestMark_RoundsDurationUpToWholeMinutes(t *testing.T) {
	r := New(santiago)
	// 61 seconds occupies two minute slots.
	r.Mark(at(10, 0), 61, config.PriorityLaptop)

	assert.Equal(t, config.PriorityLaptop, r.Level(10*60))
	assert.Equal(t, config.PriorityLaptop, r.Level(10*60+1))
	assert.Equal(t, config.PriorityNone, r.Level(10*60+2))
}

func TestMark_MonotonicPriority(t *testing.T) {
	// The stored level is the maximum ever applied, regardless of call
	// order.
	orders := [][]int{
		{1, 2, 3},
		{3, 2, 1},
		{2, 3, 1},
		{1, 3, 2},
	}
	for _, order := range orders {
		r := New(santiago)
		for _, level := range order {
			r.Mark(at(9, 30), 60, level)
		}
		assert.Equal(t, config.PriorityDesktop, r.Level(9*60+30), "order %v", order)
	}
}

func TestMark_TruncatesAtMidnight(t *testing.T) {
	r := New(santiago)
	// 30 minutes starting at 23:50 only claims the last 10 slots.
	r.Mark(at(23, 50), 30*60, config.PriorityDesktop)

	assert.Equal(t, config.PriorityDesktop, r.Level(1439))
	assert.Equal(t, 10, r.PCMinutes())
}

func TestMark_IgnoresNonPositiveDuration(t *testing.T) {
	r := New(santiago)
	r.Mark(at(12, 0), 0, config.PriorityLaptop)
	r.Mark(at(12, 0), -5, config.PriorityLaptop)

	assert.Equal(t, 0, r.PCMinutes())
	assert.Empty(t, r.Intervals())
}

func TestMergeIntervals_Empty(t *testing.T) {
	assert.Equal(t, time.Duration(0), MergeIntervals(nil))
}

func TestMergeIntervals_DisjointEqualsSum(t *testing.T) {
	intervals := []Interval{
		{Start: 0, End: 60_000},
		{Start: 120_000, End: 180_000},
		{Start: 300_000, End: 330_000},
	}
	assert.Equal(t, 150*time.Second, MergeIntervals(intervals))
}

func TestMergeIntervals_OverlapNeverExceedsSum(t *testing.T) {
	intervals := []Interval{
		{Start: 0, End: 100_000},
		{Start: 50_000, End: 150_000},
		{Start: 140_000, End: 160_000},
	}
	merged := MergeIntervals(intervals)

	var sum time.Duration
	for _, iv := range intervals {
		sum += time.Duration(iv.End-iv.Start) * time.Millisecond
	}
	assert.Equal(t, 160*time.Second, merged)
	assert.Less(t, merged, sum)
}

func TestMergeIntervals_ContainedInterval(t *testing.T) {
	intervals := []Interval{
		{Start: 0, End: 600_000},
		{Start: 100_000, End: 200_000},
	}
	assert.Equal(t, 10*time.Minute, MergeIntervals(intervals))
}

func TestDedupedScreenTime_PCAndMobileOverlap(t *testing.T) {
	// PC active 10:00-10:05, mobile 10:02-10:04: the union is exactly
	// the PC interval.
	r := New(santiago)
	r.Mark(at(10, 0), 300, config.PriorityLaptop)
	r.Mark(at(10, 2), 120, config.PriorityMobile)

	assert.Equal(t, 5*time.Minute, r.DedupedScreenTime())
}

func TestOccupancyCounts_HigherPriorityMasksLower(t *testing.T) {
	r := New(santiago)
	r.Mark(at(14, 0), 600, config.PriorityMobile)  // 14:00-14:10
	r.Mark(at(14, 5), 600, config.PriorityDesktop) // 14:05-14:15

	assert.Equal(t, 10, r.PCMinutes())
	assert.Equal(t, 5, r.MobileMinutes())
}

func TestHourlyBuckets(t *testing.T) {
	r := New(santiago)
	r.Mark(at(8, 10), 120, config.PriorityDesktop)
	r.Mark(at(8, 30), 60, config.PriorityMobile)
	r.Mark(at(21, 59), 60, config.PriorityMobile)

	buckets := r.HourlyBuckets()
	require.Len(t, buckets, 24)

	assert.Equal(t, "08:00", buckets[8].Hour)
	assert.Equal(t, 2, buckets[8].PC)
	assert.Equal(t, 1, buckets[8].Mobile)
	assert.Equal(t, 1, buckets[21].Mobile)
	assert.Equal(t, 0, buckets[0].PC)
}
