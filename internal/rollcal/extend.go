package rollcal

import (
	"errors"
	"fmt"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
)

// ErrTooFewRolls is returned when a schedule is too short to infer its rhythm
var ErrTooFewRolls = errors.New("at least two rolls are required to extend a calendar")

// Extend projects periods additional rolls after the last event of schedule.
// Roll dates advance by the median interval of the existing rolls; contracts
// step through the hold cycle and carry follows the priced cycle rule.
// The input schedule is not modified.
func Extend(schedule *contracts.RollSchedule, params contracts.RollParameters, periods int) (*contracts.RollSchedule, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if periods < 0 {
		return nil, fmt.Errorf("periods must be >= 0, got %d", periods)
	}

	interval, ok := dates.MedianInterval(schedule.RollDates())
	if !ok || interval <= 0 {
		return nil, ErrTooFewRolls
	}

	out := &contracts.RollSchedule{Events: make([]contracts.RollEvent, 0, schedule.Len()+periods)}
	out.Events = append(out.Events, schedule.Events...)

	last := schedule.Last()
	current := last.Next
	for i := 0; i < periods; i++ {
		next := params.HoldCycle.Next(current)
		carry, ok := params.PricedCycle.Shift(current, params.CarryOffset)
		if !ok || carry == current {
			carry = next
		}

		out.Events = append(out.Events, contracts.RollEvent{
			RollDate: last.RollDate.AddDate(0, 0, interval*(i+1)),
			Current:  current,
			Next:     next,
			Carry:    carry,
		})
		current = next
	}

	return out, nil
}
