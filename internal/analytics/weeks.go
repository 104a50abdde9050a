package analytics

import (
	"sort"
	"time"
)

type Week struct {
	Index   int
	Number  int
	Start   time.Time
	Entries []Entry
}

// BucketWeeks groups entries into consecutive 7-day windows anchored at the
// calendar date of the earliest entry. Windows without entries are skipped,
// so Number can have gaps.
func BucketWeeks(entries []Entry) []Week {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})

	first := DayStart(sorted[0].At)
	byIndex := map[int][]Entry{}
	indexes := make([]int, 0)
	for _, e := range sorted {
		idx := daysBetween(first, e.At) / 7
		if _, ok := byIndex[idx]; !ok {
			indexes = append(indexes, idx)
		}
		byIndex[idx] = append(byIndex[idx], e)
	}

	weeks := make([]Week, 0, len(indexes))
	for _, idx := range indexes {
		weeks = append(weeks, Week{
			Index:   idx,
			Number:  idx + 1,
			Start:   first.AddDate(0, 0, 7*idx),
			Entries: byIndex[idx],
		})
	}
	return weeks
}

// EntriesInWeek returns the entries falling in [start, start+7 days).
func EntriesInWeek(entries []Entry, start time.Time) []Entry {
	end := start.AddDate(0, 0, 7)
	out := make([]Entry, 0)
	for _, e := range entries {
		if !e.At.Before(start) && e.At.Before(end) {
			out = append(out, e)
		}
	}
	return out
}

func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

// GridWeekStart returns the start of the 7-day window anchored at anchor's
// calendar date that contains t. ok is false when t falls before the anchor.
func GridWeekStart(anchor, t time.Time) (time.Time, bool) {
	d := daysBetween(anchor, t)
	if d < 0 {
		return time.Time{}, false
	}
	return DayStart(anchor).AddDate(0, 0, 7*(d/7)), true
}

// WeekNumberFor returns the 1-based week of start counted from anchor's
// calendar date. Dates before the anchor map to week 1.
func WeekNumberFor(anchor, start time.Time) int {
	d := daysBetween(anchor, start)
	if d < 0 {
		return 1
	}
	return d/7 + 1
}
