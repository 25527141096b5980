package contracts

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/rollstitch/backend/internal/dates"
)

const (
	// MaxRollOffsetDays bounds how early an instrument may roll (some
	// instrument classes roll more than a year ahead of expiry)
	MaxRollOffsetDays = 2000
	// MaxCarryOffset bounds the carry offset in cycle positions
	MaxCarryOffset = 12
)

// RollParameters is the validated roll configuration of one instrument.
// Construct it with NewRollParameters; the zero value is not usable.
type RollParameters struct {
	HoldCycle      Cycle `json:"hold_cycle"`
	PricedCycle    Cycle `json:"priced_cycle"`
	RollOffsetDays int   `json:"roll_offset_days"` // <= 0, days before notional expiry
	ExpiryOffset   int   `json:"expiry_offset"`    // days added to the 1st of the contract month
	CarryOffset    int   `json:"carry_offset"`     // cycle positions, not days
}

// ConfigError reports an invalid roll configuration field
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid roll parameters: %s: %s", e.Field, e.Message)
}

// NewRollParameters validates and builds RollParameters
func NewRollParameters(holdCycle, pricedCycle string, rollOffsetDays, expiryOffset, carryOffset int) (RollParameters, error) {
	hold, err := ParseCycle(holdCycle)
	if err != nil {
		return RollParameters{}, &ConfigError{Field: "hold_cycle", Message: err.Error()}
	}
	priced, err := ParseCycle(pricedCycle)
	if err != nil {
		return RollParameters{}, &ConfigError{Field: "priced_cycle", Message: err.Error()}
	}

	p := RollParameters{
		HoldCycle:      hold,
		PricedCycle:    priced,
		RollOffsetDays: rollOffsetDays,
		ExpiryOffset:   expiryOffset,
		CarryOffset:    carryOffset,
	}
	if err := p.Validate(); err != nil {
		return RollParameters{}, err
	}
	return p, nil
}

// Validate checks the numeric bounds and that both cycles are set
func (p RollParameters) Validate() error {
	if p.HoldCycle.IsZero() {
		return &ConfigError{Field: "hold_cycle", Message: "required"}
	}
	if p.PricedCycle.IsZero() {
		return &ConfigError{Field: "priced_cycle", Message: "required"}
	}
	if p.RollOffsetDays > 0 {
		return &ConfigError{Field: "roll_offset_days", Message: fmt.Sprintf("must be <= 0, got %d", p.RollOffsetDays)}
	}
	if p.RollOffsetDays < -MaxRollOffsetDays {
		return &ConfigError{Field: "roll_offset_days", Message: fmt.Sprintf("must be >= -%d, got %d", MaxRollOffsetDays, p.RollOffsetDays)}
	}
	if p.CarryOffset > MaxCarryOffset || p.CarryOffset < -MaxCarryOffset {
		return &ConfigError{Field: "carry_offset", Message: fmt.Sprintf("must be within ±%d, got %d", MaxCarryOffset, p.CarryOffset)}
	}
	return nil
}

// NotionalExpiry is the first of the contract month shifted by ExpiryOffset days
func (p RollParameters) NotionalExpiry(c ContractID) time.Time {
	return c.FirstOfMonth().AddDate(0, 0, p.ExpiryOffset)
}

// ApproximateRollDate is the notional expiry shifted by RollOffsetDays
func (p RollParameters) ApproximateRollDate(c ContractID) time.Time {
	return p.NotionalExpiry(c).AddDate(0, 0, p.RollOffsetDays)
}

// RollEvent is one scheduled switch from Current to Next
type RollEvent struct {
	RollDate time.Time  `json:"roll_date"`
	Current  ContractID `json:"current_contract"`
	Next     ContractID `json:"next_contract"`
	Carry    ContractID `json:"carry_contract"`
}

// RollSchedule is the ordered list of roll events of one instrument
type RollSchedule struct {
	Events []RollEvent `json:"events"`
}

// Len returns the number of events
func (s *RollSchedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Events)
}

// Empty reports whether the schedule has no events
func (s *RollSchedule) Empty() bool {
	return s.Len() == 0
}

// Last returns the latest event
func (s *RollSchedule) Last() RollEvent {
	return s.Events[len(s.Events)-1]
}

// Sort orders events by roll date. It reports whether the order changed.
func (s *RollSchedule) Sort() bool {
	if sort.SliceIsSorted(s.Events, func(i, j int) bool {
		return s.Events[i].RollDate.Before(s.Events[j].RollDate)
	}) {
		return false
	}
	sort.SliceStable(s.Events, func(i, j int) bool {
		return s.Events[i].RollDate.Before(s.Events[j].RollDate)
	})
	return true
}

// Validate asserts strictly increasing roll dates
func (s *RollSchedule) Validate() error {
	for i := 1; i < s.Len(); i++ {
		if !s.Events[i].RollDate.After(s.Events[i-1].RollDate) {
			return fmt.Errorf("roll schedule not strictly increasing at %s (after %s)",
				s.Events[i].RollDate.Format(dates.Layout), s.Events[i-1].RollDate.Format(dates.Layout))
		}
	}
	return nil
}

// RollDates returns the roll dates in order
func (s *RollSchedule) RollDates() []time.Time {
	if s == nil {
		return nil
	}
	out := make([]time.Time, s.Len())
	for i, e := range s.Events {
		out[i] = e.RollDate
	}
	return out
}

// Holding describes which contracts apply on a day
type Holding struct {
	Price   ContractID
	Forward ContractID // zero when no distinct forward exists
	Carry   ContractID
}

// HoldingOn resolves the held, forward and carry contracts for date.
// Before roll k the contracts of event k apply; on and after the last roll
// the last event's Next is held and there is no distinct forward.
func (s *RollSchedule) HoldingOn(date time.Time) Holding {
	i := sort.Search(s.Len(), func(i int) bool {
		return s.Events[i].RollDate.After(date)
	})
	if i < s.Len() {
		e := s.Events[i]
		return Holding{Price: e.Current, Forward: e.Next, Carry: e.Carry}
	}
	last := s.Last()
	return Holding{Price: last.Next, Carry: last.Carry}
}
