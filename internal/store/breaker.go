package store

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// BreakerConfig configures the store circuit breaker
type BreakerConfig struct {
	Name                string
	ConsecutiveFailures uint32        // 연속 실패 N회 시 open
	Timeout             time.Duration // open 유지 시간
}

// DefaultBreakerConfig returns settings suited to a local database
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "series_store",
		ConsecutiveFailures: 5,
		Timeout:             30 * time.Second,
	}
}

// BreakerStore guards a SeriesStore with a circuit breaker so a failing
// database fails the remaining instruments fast instead of timing out each.
type BreakerStore struct {
	next contracts.SeriesStore
	cb   *gobreaker.CircuitBreaker
}

var _ contracts.SeriesStore = (*BreakerStore)(nil)

// NewBreakerStore wraps next
func NewBreakerStore(next contracts.SeriesStore, cfg BreakerConfig, log *logger.Logger) *BreakerStore {
	if log == nil {
		log = logger.Nop()
	}

	st := gobreaker.Settings{Name: cfg.Name}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
	}
	st.Timeout = cfg.Timeout
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.WithFields(map[string]interface{}{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("Circuit breaker state changed")
	}
	// 취소된 요청은 저장소 장애로 보지 않음
	st.IsSuccessful = func(err error) bool {
		return err == nil || err == context.Canceled
	}

	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(st),
	}
}

// State returns the current breaker state (closed, half-open, open)
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

func (b *BreakerStore) run(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// GetRollCalendar reads through the breaker
func (b *BreakerStore) GetRollCalendar(ctx context.Context, instrument string) (*contracts.RollSchedule, error) {
	var out *contracts.RollSchedule
	err := b.run(func() (err error) {
		out, err = b.next.GetRollCalendar(ctx, instrument)
		return err
	})
	return out, err
}

// SaveRollCalendar writes through the breaker
func (b *BreakerStore) SaveRollCalendar(ctx context.Context, instrument string, schedule *contracts.RollSchedule) error {
	return b.run(func() error {
		return b.next.SaveRollCalendar(ctx, instrument, schedule)
	})
}

// GetMultiplePrices reads through the breaker
func (b *BreakerStore) GetMultiplePrices(ctx context.Context, instrument string) (*contracts.MultiplePriceSeries, error) {
	var out *contracts.MultiplePriceSeries
	err := b.run(func() (err error) {
		out, err = b.next.GetMultiplePrices(ctx, instrument)
		return err
	})
	return out, err
}

// SaveMultiplePrices writes through the breaker
func (b *BreakerStore) SaveMultiplePrices(ctx context.Context, instrument string, series *contracts.MultiplePriceSeries) error {
	return b.run(func() error {
		return b.next.SaveMultiplePrices(ctx, instrument, series)
	})
}

// GetAdjustedPrices reads through the breaker
func (b *BreakerStore) GetAdjustedPrices(ctx context.Context, instrument string) (*contracts.AdjustedPriceSeries, error) {
	var out *contracts.AdjustedPriceSeries
	err := b.run(func() (err error) {
		out, err = b.next.GetAdjustedPrices(ctx, instrument)
		return err
	})
	return out, err
}

// SaveAdjustedPrices writes through the breaker
func (b *BreakerStore) SaveAdjustedPrices(ctx context.Context, instrument string, series *contracts.AdjustedPriceSeries) error {
	return b.run(func() error {
		return b.next.SaveAdjustedPrices(ctx, instrument, series)
	})
}
