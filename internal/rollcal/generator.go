package rollcal

import (
	"fmt"
	"time"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// Config holds roll calendar generation settings
type Config struct {
	MaxSearchDays int `yaml:"max_search_days"` // 근사 롤 날짜 주변 탐색 범위 (일)
}

// DefaultConfig returns the standard generation settings
func DefaultConfig() Config {
	return Config{MaxSearchDays: 30}
}

// Generator builds roll schedules from contract prices
// ⭐ SSOT: S1 롤 캘린더 생성
type Generator struct {
	config Config
	log    *logger.Logger
}

var _ contracts.CalendarGenerator = (*Generator)(nil)

// NewGenerator creates a new roll calendar generator
func NewGenerator(config Config, log *logger.Logger) *Generator {
	if config.MaxSearchDays <= 0 {
		config.MaxSearchDays = DefaultConfig().MaxSearchDays
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{
		config: config,
		log:    log,
	}
}

// candidate is a roll before final validation
type candidate struct {
	event   contracts.RollEvent
	current *contracts.ContractPriceSeries
	next    *contracts.ContractPriceSeries
}

// Generate derives the roll schedule for one instrument.
// Per-pair problems are returned as warnings; only insufficient contracts,
// invalid parameters and an empty result are errors.
func (g *Generator) Generate(prices contracts.ContractPrices, params contracts.RollParameters) (*contracts.RollSchedule, contracts.Warnings, error) {
	var warnings contracts.Warnings

	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	// 1-2. 정렬 후 hold cycle 필터
	hold := make([]contracts.ContractID, 0, len(prices))
	for _, id := range prices.SortedContracts() {
		if !id.InCycle(params.HoldCycle) {
			continue
		}
		if prices[id].Empty() {
			warnings.Add(contracts.StageRollCalendar, contracts.WarnMissingContract, id.FirstOfMonth(),
				"contract %s has no prices", id)
			continue
		}
		hold = append(hold, id)
	}
	if len(hold) < 2 {
		return nil, warnings, fmt.Errorf("%w: found %d in cycle %s", contracts.ErrInsufficientContracts, len(hold), params.HoldCycle)
	}

	// 3-5. 연속된 월물 쌍마다 롤 날짜와 carry 월물 결정
	candidates := make([]candidate, 0, len(hold)-1)
	for i := 0; i+1 < len(hold); i++ {
		current, next := hold[i], hold[i+1]
		cur, nxt := prices[current], prices[next]

		approx := params.ApproximateRollDate(current)
		common := dates.Intersect(cur.Dates(), nxt.Dates())
		if len(common) == 0 {
			warnings.Add(contracts.StageRollCalendar, contracts.WarnNoOverlap, approx,
				"no overlapping dates between %s and %s", current, next)
			continue
		}

		rollDate, ok := dates.Nearest(approx, common, g.config.MaxSearchDays)
		if !ok {
			warnings.Add(contracts.StageRollCalendar, contracts.WarnNoRollDate, approx,
				"%v: %s -> %s within %d days", contracts.ErrNoValidRollDate, current, next, g.config.MaxSearchDays)
			continue
		}

		carry := g.carryContract(current, next, params, rollDate, &warnings)

		candidates = append(candidates, candidate{
			event: contracts.RollEvent{
				RollDate: rollDate,
				Current:  current,
				Next:     next,
				Carry:    carry,
			},
			current: cur,
			next:    nxt,
		})
	}

	// 6. 정확한 날짜 검증
	schedule := &contracts.RollSchedule{Events: make([]contracts.RollEvent, 0, len(candidates))}
	for _, c := range candidates {
		if !c.current.HasDate(c.event.RollDate) || !c.next.HasDate(c.event.RollDate) {
			warnings.Add(contracts.StageRollCalendar, contracts.WarnMissingRollPrice, c.event.RollDate,
				"%s or %s has no price on roll date", c.event.Current, c.event.Next)
			continue
		}
		schedule.Events = append(schedule.Events, c.event)
	}

	if schedule.Sort() {
		warnings.Add(contracts.StageRollCalendar, contracts.WarnNonMonotonic, schedule.Events[0].RollDate,
			"roll dates re-sorted")
	}
	schedule.Events = dropDuplicateDates(schedule.Events, &warnings)

	if schedule.Empty() {
		return nil, warnings, contracts.ErrEmptyCalendar
	}
	if err := schedule.Validate(); err != nil {
		return nil, warnings, err
	}

	g.log.WithFields(map[string]interface{}{
		"stage":     contracts.StageRollCalendar.ShortName(),
		"contracts": len(hold),
		"rolls":     schedule.Len(),
		"warnings":  len(warnings),
	}).Debug("Roll calendar generated")
	logWarnings(g.log, warnings)

	return schedule, warnings, nil
}

// carryContract shifts current by CarryOffset positions of the priced cycle.
// The carry never resolves to current itself; next is the fallback.
func (g *Generator) carryContract(current, next contracts.ContractID, params contracts.RollParameters, rollDate time.Time, warnings *contracts.Warnings) contracts.ContractID {
	carry, ok := params.PricedCycle.Shift(current, params.CarryOffset)
	if !ok {
		warnings.Add(contracts.StageRollCalendar, contracts.WarnCarryUndefined, rollDate,
			"%s not in priced cycle %s, carry falls back to %s", current, params.PricedCycle, next)
		return next
	}
	if carry == current {
		warnings.Add(contracts.StageRollCalendar, contracts.WarnCarryUndefined, rollDate,
			"carry offset %d resolves to held contract %s, carry falls back to %s", params.CarryOffset, current, next)
		return next
	}
	return carry
}

// dropDuplicateDates keeps the first event of each roll date
func dropDuplicateDates(events []contracts.RollEvent, warnings *contracts.Warnings) []contracts.RollEvent {
	out := events[:0]
	for i, e := range events {
		if i > 0 && e.RollDate.Equal(out[len(out)-1].RollDate) {
			warnings.Add(contracts.StageRollCalendar, contracts.WarnNonMonotonic, e.RollDate,
				"roll %s -> %s shares date with %s -> %s, dropped", e.Current, e.Next, out[len(out)-1].Current, out[len(out)-1].Next)
			continue
		}
		out = append(out, e)
	}
	return out
}

// logWarnings emits each warning at warn level
func logWarnings(log *logger.Logger, warnings contracts.Warnings) {
	for _, w := range warnings {
		log.WithFields(w.Fields()).Warn(w.Message)
	}
}
