package contracts

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/rollstitch/backend/internal/dates"
)

// Bar is one daily OHLCV observation of a contract
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// ContractPriceSeries is the date-sorted bar history of one contract.
// The core only reads it; sources build it with NewContractPriceSeries.
type ContractPriceSeries struct {
	Contract ContractID
	Bars     []Bar

	dates []time.Time
}

// NewContractPriceSeries normalizes dates, sorts ascending and rejects
// duplicate dates.
func NewContractPriceSeries(contract ContractID, bars []Bar) (*ContractPriceSeries, error) {
	out := make([]Bar, len(bars))
	copy(out, bars)
	for i := range out {
		out[i].Date = dates.Normalize(out[i].Date)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	ds := make([]time.Time, len(out))
	for i, b := range out {
		if i > 0 && b.Date.Equal(out[i-1].Date) {
			return nil, fmt.Errorf("contract %s: duplicate date %s", contract, b.Date.Format(dates.Layout))
		}
		ds[i] = b.Date
	}

	return &ContractPriceSeries{Contract: contract, Bars: out, dates: ds}, nil
}

// MustContractPriceSeries panics on invalid input; fixtures only
func MustContractPriceSeries(contract ContractID, bars []Bar) *ContractPriceSeries {
	s, err := NewContractPriceSeries(contract, bars)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of bars
func (s *ContractPriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Empty reports whether the series has no bars
func (s *ContractPriceSeries) Empty() bool {
	return s.Len() == 0
}

// Dates returns the sorted trading dates. The slice must not be modified.
// Read-only: series built by NewContractPriceSeries return the cached
// slice, anything else gets a fresh copy.
func (s *ContractPriceSeries) Dates() []time.Time {
	if s == nil {
		return nil
	}
	if len(s.dates) == len(s.Bars) {
		return s.dates
	}
	ds := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		ds[i] = b.Date
	}
	return ds
}

// IndexOf returns the bar index for date, or -1
func (s *ContractPriceSeries) IndexOf(date time.Time) int {
	if s == nil {
		return -1
	}
	i := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(date)
	})
	if i < len(s.Bars) && s.Bars[i].Date.Equal(date) {
		return i
	}
	return -1
}

// HasDate reports whether the contract traded on date
func (s *ContractPriceSeries) HasDate(date time.Time) bool {
	return s.IndexOf(date) >= 0
}

// CloseOn returns the close on exactly date
func (s *ContractPriceSeries) CloseOn(date time.Time) (float64, bool) {
	i := s.IndexOf(date)
	if i < 0 {
		return math.NaN(), false
	}
	return s.Bars[i].Close, true
}

// BarNear returns the bar on date or, failing that, the nearest bar within
// maxDays calendar days.
func (s *ContractPriceSeries) BarNear(date time.Time, maxDays int) (Bar, bool) {
	if i := s.IndexOf(date); i >= 0 {
		return s.Bars[i], true
	}
	nearest, ok := dates.Nearest(date, s.Dates(), maxDays)
	if !ok {
		return Bar{}, false
	}
	return s.Bars[s.IndexOf(nearest)], true
}

// First returns the first bar date
func (s *ContractPriceSeries) First() time.Time {
	return s.Bars[0].Date
}

// Last returns the last bar date
func (s *ContractPriceSeries) Last() time.Time {
	return s.Bars[len(s.Bars)-1].Date
}

// Sanitize re-derives high/low so that high >= max(open, close) and
// low <= min(open, close). It returns the number of bars it touched.
func (s *ContractPriceSeries) Sanitize() int {
	touched := 0
	for i := range s.Bars {
		b := &s.Bars[i]
		hi := math.Max(b.High, math.Max(b.Open, b.Close))
		lo := math.Min(b.Low, math.Min(b.Open, b.Close))
		if hi != b.High || lo != b.Low {
			b.High, b.Low = hi, lo
			touched++
		}
	}
	return touched
}

// ContractPrices maps each contract to its bar history
type ContractPrices map[ContractID]*ContractPriceSeries

// SortedContracts returns the contract ids in chronological order
func (p ContractPrices) SortedContracts() []ContractID {
	ids := make([]ContractID, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Before(ids[j])
	})
	return ids
}

// DateRange returns the first and last date across all non-empty series
func (p ContractPrices) DateRange() (from, to time.Time, ok bool) {
	for _, s := range p {
		if s.Empty() {
			continue
		}
		if !ok || s.First().Before(from) {
			from = s.First()
		}
		if !ok || s.Last().After(to) {
			to = s.Last()
		}
		ok = true
	}
	return from, to, ok
}

// Merge returns a new map with the series of other overriding those of p
func (p ContractPrices) Merge(other ContractPrices) ContractPrices {
	out := make(ContractPrices, len(p)+len(other))
	for id, s := range p {
		out[id] = s
	}
	for id, s := range other {
		out[id] = s
	}
	return out
}

// TradingDays returns the sorted union of all trading dates
func (p ContractPrices) TradingDays() []time.Time {
	seen := make(map[time.Time]struct{})
	for _, s := range p {
		for _, d := range s.Dates() {
			seen[d] = struct{}{}
		}
	}
	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	dates.Sort(out)
	return out
}
