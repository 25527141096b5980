package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNearest(t *testing.T) {
	sorted := []time.Time{
		Day(2024, time.March, 1),
		Day(2024, time.March, 5),
		Day(2024, time.March, 20),
	}

	tests := []struct {
		name    string
		target  time.Time
		maxDays int
		want    time.Time
		ok      bool
	}{
		{name: "exact", target: Day(2024, time.March, 5), maxDays: 0, want: Day(2024, time.March, 5), ok: true},
		{name: "closer to later", target: Day(2024, time.March, 4), maxDays: 7, want: Day(2024, time.March, 5), ok: true},
		{name: "tie picks earlier", target: Day(2024, time.March, 3), maxDays: 7, want: Day(2024, time.March, 1), ok: true},
		{name: "before range", target: Day(2024, time.February, 27), maxDays: 7, want: Day(2024, time.March, 1), ok: true},
		{name: "outside window", target: Day(2024, time.March, 12), maxDays: 6, ok: false},
		{name: "after range", target: Day(2024, time.April, 30), maxDays: 30, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Nearest(tt.target, sorted, tt.maxDays)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	_, ok := Nearest(Day(2024, time.March, 1), nil, 30)
	assert.False(t, ok)
}

func TestIntersect(t *testing.T) {
	a := []time.Time{Day(2024, 1, 1), Day(2024, 1, 2), Day(2024, 1, 4)}
	b := []time.Time{Day(2024, 1, 2), Day(2024, 1, 3), Day(2024, 1, 4), Day(2024, 1, 5)}

	assert.Equal(t, []time.Time{Day(2024, 1, 2), Day(2024, 1, 4)}, Intersect(a, b))
	assert.Empty(t, Intersect(a, nil))
}

func TestEachDay(t *testing.T) {
	days := EachDay(Day(2024, time.February, 28), Day(2024, time.March, 1))
	assert.Equal(t, []time.Time{Day(2024, 2, 28), Day(2024, 2, 29), Day(2024, 3, 1)}, days)
	assert.Nil(t, EachDay(Day(2024, 3, 2), Day(2024, 3, 1)))
}

func TestNormalize(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	got := Normalize(time.Date(2024, 3, 11, 23, 30, 0, 0, seoul))
	assert.Equal(t, Day(2024, time.March, 11), got)
}

func TestMedianInterval(t *testing.T) {
	got, ok := MedianInterval([]time.Time{Day(2024, 1, 1), Day(2024, 4, 1), Day(2024, 7, 1), Day(2024, 10, 1)})
	assert.True(t, ok)
	assert.Equal(t, 91, got)

	_, ok = MedianInterval([]time.Time{Day(2024, 1, 1)})
	assert.False(t, ok)
}

func TestBusinessDays(t *testing.T) {
	friday := Day(2024, time.March, 8)

	assert.True(t, IsBusinessDay(friday))
	assert.False(t, IsBusinessDay(friday.AddDate(0, 0, 1)))
	assert.Equal(t, Day(2024, time.March, 11), AddBusinessDays(friday, 1))
	assert.Equal(t, Day(2024, time.March, 7), AddBusinessDays(friday, -1))
	assert.Equal(t, 5, BusinessDaysBetween(friday, Day(2024, time.March, 15)))
	assert.Equal(t, -5, BusinessDaysBetween(Day(2024, time.March, 15), friday))
	assert.Equal(t, Day(2024, time.March, 11), Following(Day(2024, time.March, 9)))
}
