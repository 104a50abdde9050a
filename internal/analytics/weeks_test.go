package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketWeeksSkipsEmptyWindows(t *testing.T) {
	t.Parallel()

	day0 := time.Date(2024, 3, 4, 21, 30, 0, 0, time.UTC)
	entries := []Entry{
		{At: day0.AddDate(0, 0, 15), WeightKg: 78},
		{At: day0, WeightKg: 80},
		{At: day0.AddDate(0, 0, 3), WeightKg: 79.5},
	}
	weeks := BucketWeeks(entries)

	require.Len(t, weeks, 2)
	assert.Equal(t, 1, weeks[0].Number)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), weeks[0].Start)
	require.Len(t, weeks[0].Entries, 2)
	assert.Equal(t, 80.0, weeks[0].Entries[0].WeightKg)

	assert.Equal(t, 2, weeks[1].Index)
	assert.Equal(t, 3, weeks[1].Number)
	assert.Equal(t, time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), weeks[1].Start)
}

func TestBucketWeeksAnchorsAtCalendarDate(t *testing.T) {
	t.Parallel()

	first := time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC)
	nextWeek := time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC)
	weeks := BucketWeeks([]Entry{{At: first, WeightKg: 80}, {At: nextWeek, WeightKg: 80}})

	require.Len(t, weeks, 2)
	assert.Equal(t, 2, weeks[1].Number)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), weeks[1].Start)
}

func TestBucketWeeksEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, BucketWeeks(nil))
}

func TestEntriesInWeekIsHalfOpen(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{At: start.Add(-time.Second)},
		{At: start},
		{At: start.AddDate(0, 0, 7).Add(-time.Second)},
		{At: start.AddDate(0, 0, 7)},
	}
	got := EntriesInWeek(entries, start)
	require.Len(t, got, 2)
	assert.Equal(t, start, got[0].At)
}

func TestWeekNumberFor(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, WeekNumberFor(anchor, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, WeekNumberFor(anchor, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2, WeekNumberFor(anchor, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 5, WeekNumberFor(anchor, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestGridWeekStartSnapsToAnchorWindows(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)
	cases := map[string]string{
		"2024-03-04": "2024-03-04",
		"2024-03-06": "2024-03-04",
		"2024-03-10": "2024-03-04",
		"2024-03-11": "2024-03-11",
		"2024-03-20": "2024-03-18",
	}
	for in, want := range cases {
		day, err := time.Parse("2006-01-02", in)
		require.NoError(t, err)
		got, ok := GridWeekStart(anchor, day)
		require.True(t, ok, in)
		assert.Equal(t, want, got.Format("2006-01-02"), in)
	}

	_, ok := GridWeekStart(anchor, time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}
