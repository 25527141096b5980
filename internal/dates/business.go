package dates

import "time"

// IsBusinessDay reports whether t is a weekday. Exchange holidays are not
// modelled; roll dates are snapped to days with actual prices instead.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddBusinessDays advances n business days (n can be negative)
func AddBusinessDays(t time.Time, n int) time.Time {
	t = Normalize(t)
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for n > 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(t) {
			n--
		}
	}
	return t
}

// BusinessDaysBetween counts business days in (from, to]. Negative when to
// precedes from.
func BusinessDaysBetween(from, to time.Time) int {
	from, to = Normalize(from), Normalize(to)
	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}
	count := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			count++
		}
	}
	return sign * count
}

// Following rolls t forward to the next business day when it falls on a weekend
func Following(t time.Time) time.Time {
	t = Normalize(t)
	for !IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
