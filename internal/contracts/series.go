package contracts

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// MultiplePriceRow holds the held, forward and carry observations of one day.
// Undefined prices are NaN; undefined contracts are the zero ContractID.
type MultiplePriceRow struct {
	Date            time.Time  `json:"date"`
	Price           float64    `json:"price"`
	PriceContract   ContractID `json:"price_contract"`
	Forward         float64    `json:"forward"`
	ForwardContract ContractID `json:"forward_contract"`
	Carry           float64    `json:"carry"`
	CarryContract   ContractID `json:"carry_contract"`
}

// HasForward reports whether the forward price is defined
func (r MultiplePriceRow) HasForward() bool { return !math.IsNaN(r.Forward) }

// HasCarry reports whether the carry price is defined
func (r MultiplePriceRow) HasCarry() bool { return !math.IsNaN(r.Carry) }

// Equal compares two rows treating NaN == NaN
func (r MultiplePriceRow) Equal(o MultiplePriceRow) bool {
	return r.Date.Equal(o.Date) &&
		sameFloat(r.Price, o.Price) && r.PriceContract == o.PriceContract &&
		sameFloat(r.Forward, o.Forward) && r.ForwardContract == o.ForwardContract &&
		sameFloat(r.Carry, o.Carry) && r.CarryContract == o.CarryContract
}

// rowJSON mirrors MultiplePriceRow with nullable prices (JSON has no NaN)
type rowJSON struct {
	Date            time.Time  `json:"date"`
	Price           *float64   `json:"price"`
	PriceContract   ContractID `json:"price_contract"`
	Forward         *float64   `json:"forward"`
	ForwardContract ContractID `json:"forward_contract"`
	Carry           *float64   `json:"carry"`
	CarryContract   ContractID `json:"carry_contract"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func fromNullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// MarshalJSON writes undefined prices as null
func (r MultiplePriceRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{
		Date:            r.Date,
		Price:           nullable(r.Price),
		PriceContract:   r.PriceContract,
		Forward:         nullable(r.Forward),
		ForwardContract: r.ForwardContract,
		Carry:           nullable(r.Carry),
		CarryContract:   r.CarryContract,
	})
}

// UnmarshalJSON reads null prices back as NaN
func (r *MultiplePriceRow) UnmarshalJSON(b []byte) error {
	var raw rowJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = MultiplePriceRow{
		Date:            raw.Date,
		Price:           fromNullable(raw.Price),
		PriceContract:   raw.PriceContract,
		Forward:         fromNullable(raw.Forward),
		ForwardContract: raw.ForwardContract,
		Carry:           fromNullable(raw.Carry),
		CarryContract:   raw.CarryContract,
	}
	return nil
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

// MultiplePriceSeries is the date-ordered multiple price table
type MultiplePriceSeries struct {
	Rows []MultiplePriceRow `json:"rows"`
}

// Len returns the number of rows
func (s *MultiplePriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Empty reports whether the series has no rows
func (s *MultiplePriceSeries) Empty() bool { return s.Len() == 0 }

// LastDate returns the date of the last row
func (s *MultiplePriceSeries) LastDate() time.Time {
	return s.Rows[len(s.Rows)-1].Date
}

// Index returns the row index for date, or -1
func (s *MultiplePriceSeries) Index(date time.Time) int {
	i := sort.Search(s.Len(), func(i int) bool {
		return !s.Rows[i].Date.Before(date)
	})
	if i < s.Len() && s.Rows[i].Date.Equal(date) {
		return i
	}
	return -1
}

// Dates returns the row dates in order
func (s *MultiplePriceSeries) Dates() []time.Time {
	out := make([]time.Time, s.Len())
	for i, r := range s.Rows {
		out[i] = r.Date
	}
	return out
}

// RollIndices returns the row indices where PRICE_CONTRACT differs from the
// previous row. Index 0 is always included for a non-empty series.
func (s *MultiplePriceSeries) RollIndices() []int {
	out := make([]int, 0)
	for i, r := range s.Rows {
		if i == 0 || r.PriceContract != s.Rows[i-1].PriceContract {
			out = append(out, i)
		}
	}
	return out
}

// AdjustedPoint is one value of a continuous adjusted series
type AdjustedPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// AdjustedPriceSeries is the back-adjusted continuous series
type AdjustedPriceSeries struct {
	Points []AdjustedPoint `json:"points"`
}

// Len returns the number of points
func (s *AdjustedPriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Empty reports whether the series has no points
func (s *AdjustedPriceSeries) Empty() bool { return s.Len() == 0 }

// LastDate returns the date of the last point
func (s *AdjustedPriceSeries) LastDate() time.Time {
	return s.Points[len(s.Points)-1].Date
}

// Index returns the point index for date, or -1
func (s *AdjustedPriceSeries) Index(date time.Time) int {
	i := sort.Search(s.Len(), func(i int) bool {
		return !s.Points[i].Date.Before(date)
	})
	if i < s.Len() && s.Points[i].Date.Equal(date) {
		return i
	}
	return -1
}

// PriceOn returns the adjusted price on date
func (s *AdjustedPriceSeries) PriceOn(date time.Time) (float64, bool) {
	i := s.Index(date)
	if i < 0 {
		return math.NaN(), false
	}
	return s.Points[i].Price, true
}
