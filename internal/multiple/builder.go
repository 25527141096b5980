package multiple

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// Config holds multiple price construction settings
type Config struct {
	MaxFillDays int `yaml:"max_fill_days"` // 최근접 가격 탐색 범위 (일)
}

// DefaultConfig returns the standard construction settings
func DefaultConfig() Config {
	return Config{MaxFillDays: 7}
}

// Builder projects a roll schedule onto contract prices
// ⭐ SSOT: S2 멀티플 가격 생성
type Builder struct {
	config Config
	log    *logger.Logger
}

var _ contracts.MultiplePriceBuilder = (*Builder)(nil)

// NewBuilder creates a new multiple price builder
func NewBuilder(config Config, log *logger.Logger) *Builder {
	if config.MaxFillDays <= 0 {
		config.MaxFillDays = DefaultConfig().MaxFillDays
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		config: config,
		log:    log,
	}
}

// Build produces one row per trading day of any contract. PRICE comes from
// the held contract (exact close, else nearest within MaxFillDays); days
// without a PRICE are dropped. FORWARD and CARRY are forward-filled.
func (b *Builder) Build(prices contracts.ContractPrices, schedule *contracts.RollSchedule) (*contracts.MultiplePriceSeries, contracts.Warnings, error) {
	var warnings contracts.Warnings

	if schedule.Empty() {
		return nil, nil, contracts.ErrEmptyCalendar
	}

	days := prices.TradingDays()
	if len(days) == 0 {
		return nil, nil, contracts.ErrNoData
	}

	missing := make(map[contracts.ContractID]*gap)
	rows := make([]contracts.MultiplePriceRow, 0, len(days))

	for _, day := range days {
		h := schedule.HoldingOn(day)

		price, ok := b.closeNear(prices[h.Price], day)
		if !ok {
			g, seen := missing[h.Price]
			if !seen {
				g = &gap{first: day}
				missing[h.Price] = g
			}
			g.days++
			continue
		}

		row := contracts.MultiplePriceRow{
			Date:          day,
			Price:         price,
			PriceContract: h.Price,
			Forward:       math.NaN(),
			Carry:         math.NaN(),
		}

		// FORWARD: 별도 forward 월물이 없으면 PRICE 미러
		fwd := prices[h.Forward]
		if h.Forward.IsZero() || h.Forward == h.Price || fwd.Empty() {
			row.Forward, row.ForwardContract = price, h.Price
		} else if v, ok := b.closeNear(fwd, day); ok {
			row.Forward, row.ForwardContract = v, h.Forward
		}

		// CARRY: 시계열이 없으면 PRICE 월물로 대체
		carry := prices[h.Carry]
		if h.Carry.IsZero() || carry.Empty() {
			row.Carry, row.CarryContract = price, h.Price
		} else if v, ok := b.closeNear(carry, day); ok {
			row.Carry, row.CarryContract = v, h.Carry
		}

		rows = append(rows, row)
	}

	for _, id := range sortedGaps(missing) {
		g := missing[id]
		warnings.Add(contracts.StageMultiplePrices, contracts.WarnMissingPrice, g.first,
			"%d day(s) without a price for held contract %s", g.days, id)
	}

	if len(rows) == 0 {
		return nil, warnings, contracts.ErrEmptyMultiplePrices
	}

	forwardFill(rows)

	series := &contracts.MultiplePriceSeries{Rows: rows}
	b.log.WithFields(map[string]interface{}{
		"stage":    contracts.StageMultiplePrices.ShortName(),
		"rows":     series.Len(),
		"rolls":    schedule.Len(),
		"warnings": len(warnings),
	}).Debug("Multiple prices built")
	logWarnings(b.log, warnings)

	return series, warnings, nil
}

// Update rebuilds the series and splices it onto existing. Rows already in
// existing are kept as persisted; only rows after its last date are added.
// Recomputed rows that disagree with persisted ones are reported.
func (b *Builder) Update(existing *contracts.MultiplePriceSeries, prices contracts.ContractPrices, schedule *contracts.RollSchedule) (*contracts.MultiplePriceSeries, contracts.Warnings, error) {
	if existing.Empty() {
		return b.Build(prices, schedule)
	}

	rebuilt, warnings, err := b.Build(prices, schedule)
	if err != nil {
		return nil, warnings, fmt.Errorf("rebuild multiple prices: %w", err)
	}

	last := existing.LastDate()
	out := &contracts.MultiplePriceSeries{Rows: make([]contracts.MultiplePriceRow, 0, rebuilt.Len())}
	out.Rows = append(out.Rows, existing.Rows...)

	mismatches := 0
	var firstMismatch time.Time
	for _, r := range rebuilt.Rows {
		if r.Date.After(last) {
			out.Rows = append(out.Rows, r)
			continue
		}
		if i := existing.Index(r.Date); i >= 0 && !existing.Rows[i].Equal(r) {
			if mismatches == 0 {
				firstMismatch = r.Date
			}
			mismatches++
		}
	}

	if mismatches > 0 {
		var inconsistent contracts.Warnings
		inconsistent.Add(contracts.StageMultiplePrices, contracts.WarnInconsistentUpdate, firstMismatch,
			"%d persisted row(s) differ from the recomputed series, persisted values kept", mismatches)
		logWarnings(b.log, inconsistent)
		warnings = append(warnings, inconsistent...)
	}

	b.log.WithFields(map[string]interface{}{
		"existing": existing.Len(),
		"added":    out.Len() - existing.Len(),
	}).Debug("Multiple prices updated")

	return out, warnings, nil
}

// closeNear returns the close on day or the nearest close within MaxFillDays
func (b *Builder) closeNear(s *contracts.ContractPriceSeries, day time.Time) (float64, bool) {
	bar, ok := s.BarNear(day, b.config.MaxFillDays)
	if !ok {
		return math.NaN(), false
	}
	return bar.Close, true
}

// forwardFill carries FORWARD and CARRY (with their contracts) over gaps
func forwardFill(rows []contracts.MultiplePriceRow) {
	for i := 1; i < len(rows); i++ {
		prev := rows[i-1]
		if !rows[i].HasForward() {
			rows[i].Forward, rows[i].ForwardContract = prev.Forward, prev.ForwardContract
		}
		if !rows[i].HasCarry() {
			rows[i].Carry, rows[i].CarryContract = prev.Carry, prev.CarryContract
		}
	}
}

type gap struct {
	first time.Time
	days  int
}

func sortedGaps(m map[contracts.ContractID]*gap) []contracts.ContractID {
	ids := make([]contracts.ContractID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Before(ids[j])
	})
	return ids
}

func logWarnings(log *logger.Logger, warnings contracts.Warnings) {
	for _, w := range warnings {
		log.WithFields(w.Fields()).Warn(w.Message)
	}
}
