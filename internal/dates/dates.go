// Package dates holds the calendar arithmetic shared by the roll calendar,
// multiple price and stitching stages. All dates are daily: callers pass
// values normalized with Normalize.
package dates

import (
	"sort"
	"time"
)

// Layout is the textual date format used by sources, stores and the API
const Layout = "2006-01-02"

// Normalize truncates t to midnight UTC of its calendar day
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse parses a YYYY-MM-DD date into a normalized time
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Normalize(t), nil
}

// Day builds a normalized date, mostly for fixtures
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(Normalize(b).Sub(Normalize(a)).Hours() / 24)
}

func absDays(a, b time.Time) int {
	d := DaysBetween(a, b)
	if d < 0 {
		return -d
	}
	return d
}

// Nearest returns the date in sorted closest to target, provided it lies
// within maxDays calendar days. Ties resolve to the earlier date.
// The search is a binary search, so it never scans beyond the two neighbours.
func Nearest(target time.Time, sorted []time.Time, maxDays int) (time.Time, bool) {
	if len(sorted) == 0 {
		return time.Time{}, false
	}

	i := sort.Search(len(sorted), func(i int) bool {
		return !sorted[i].Before(target)
	})

	best := -1
	bestDiff := 0
	// 앞쪽 후보를 먼저 보므로 동률이면 이전 날짜가 선택됨
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(sorted) {
			continue
		}
		diff := absDays(target, sorted[j])
		if best < 0 || diff < bestDiff {
			best, bestDiff = j, diff
		}
	}

	if best < 0 || bestDiff > maxDays {
		return time.Time{}, false
	}
	return sorted[best], true
}

// Intersect returns the dates present in both sorted slices, sorted
func Intersect(a, b []time.Time) []time.Time {
	out := make([]time.Time, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Equal(b[j]):
			out = append(out, a[i])
			i++
			j++
		case a[i].Before(b[j]):
			i++
		default:
			j++
		}
	}
	return out
}

// Contains reports whether sorted holds date exactly
func Contains(sorted []time.Time, date time.Time) bool {
	i := sort.Search(len(sorted), func(i int) bool {
		return !sorted[i].Before(date)
	})
	return i < len(sorted) && sorted[i].Equal(date)
}

// EachDay returns every calendar day in [from, to], inclusive
func EachDay(from, to time.Time) []time.Time {
	from, to = Normalize(from), Normalize(to)
	if to.Before(from) {
		return nil
	}
	out := make([]time.Time, 0, DaysBetween(from, to)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Sort sorts dates ascending in place
func Sort(ds []time.Time) {
	sort.Slice(ds, func(i, j int) bool {
		return ds[i].Before(ds[j])
	})
}

// MedianInterval returns the median gap in days between consecutive sorted dates.
// ok is false with fewer than two dates.
func MedianInterval(sorted []time.Time) (int, bool) {
	if len(sorted) < 2 {
		return 0, false
	}
	gaps := make([]int, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, DaysBetween(sorted[i-1], sorted[i]))
	}
	sort.Ints(gaps)
	n := len(gaps)
	if n%2 == 1 {
		return gaps[n/2], true
	}
	return (gaps[n/2-1] + gaps[n/2]) / 2, true
}
