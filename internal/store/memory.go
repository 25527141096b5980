package store

import (
	"context"
	"sort"
	"sync"

	"github.com/wonny/rollstitch/backend/internal/contracts"
)

// MemoryStore keeps everything in process memory (CSV mode, tests).
// Values are copied on the way in and out.
type MemoryStore struct {
	mu        sync.RWMutex
	prices    map[string]contracts.ContractPrices
	schedules map[string]*contracts.RollSchedule
	multiple  map[string]*contracts.MultiplePriceSeries
	adjusted  map[string]*contracts.AdjustedPriceSeries
}

var (
	_ contracts.ContractPriceRepository = (*MemoryStore)(nil)
	_ contracts.SeriesStore             = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prices:    make(map[string]contracts.ContractPrices),
		schedules: make(map[string]*contracts.RollSchedule),
		multiple:  make(map[string]*contracts.MultiplePriceSeries),
		adjusted:  make(map[string]*contracts.AdjustedPriceSeries),
	}
}

// ListInstruments returns the instruments with contract prices, sorted
func (m *MemoryStore) ListInstruments(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.prices))
	for code := range m.prices {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

// LoadContractPrices returns the contract prices of an instrument
func (m *MemoryStore) LoadContractPrices(ctx context.Context, instrument string) (contracts.ContractPrices, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(contracts.ContractPrices, len(m.prices[instrument]))
	for id, s := range m.prices[instrument] {
		out[id] = s
	}
	return out, nil
}

// SaveContractPrices merges one contract's bars into the store
func (m *MemoryStore) SaveContractPrices(ctx context.Context, instrument string, series *contracts.ContractPriceSeries) error {
	bars := make([]contracts.Bar, 0, series.Len())
	byDate := make(map[int64]int)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.prices[instrument] == nil {
		m.prices[instrument] = make(contracts.ContractPrices)
	}
	if old := m.prices[instrument][series.Contract]; old != nil {
		for _, b := range old.Bars {
			byDate[b.Date.Unix()] = len(bars)
			bars = append(bars, b)
		}
	}
	for _, b := range series.Bars {
		if i, ok := byDate[b.Date.Unix()]; ok {
			bars[i] = b
			continue
		}
		bars = append(bars, b)
	}

	merged, err := contracts.NewContractPriceSeries(series.Contract, bars)
	if err != nil {
		return err
	}
	m.prices[instrument][series.Contract] = merged
	return nil
}

// GetRollCalendar returns the stored schedule or an empty one
func (m *MemoryStore) GetRollCalendar(ctx context.Context, instrument string) (*contracts.RollSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &contracts.RollSchedule{Events: []contracts.RollEvent{}}
	if s := m.schedules[instrument]; s != nil {
		out.Events = append(out.Events, s.Events...)
	}
	return out, nil
}

// SaveRollCalendar replaces the stored schedule
func (m *MemoryStore) SaveRollCalendar(ctx context.Context, instrument string, schedule *contracts.RollSchedule) error {
	cp := &contracts.RollSchedule{Events: append([]contracts.RollEvent(nil), schedule.Events...)}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[instrument] = cp
	return nil
}

// GetMultiplePrices returns the stored series or an empty one
func (m *MemoryStore) GetMultiplePrices(ctx context.Context, instrument string) (*contracts.MultiplePriceSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &contracts.MultiplePriceSeries{Rows: []contracts.MultiplePriceRow{}}
	if s := m.multiple[instrument]; s != nil {
		out.Rows = append(out.Rows, s.Rows...)
	}
	return out, nil
}

// SaveMultiplePrices replaces the stored series
func (m *MemoryStore) SaveMultiplePrices(ctx context.Context, instrument string, series *contracts.MultiplePriceSeries) error {
	cp := &contracts.MultiplePriceSeries{Rows: append([]contracts.MultiplePriceRow(nil), series.Rows...)}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.multiple[instrument] = cp
	return nil
}

// GetAdjustedPrices returns the stored series or an empty one
func (m *MemoryStore) GetAdjustedPrices(ctx context.Context, instrument string) (*contracts.AdjustedPriceSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &contracts.AdjustedPriceSeries{Points: []contracts.AdjustedPoint{}}
	if s := m.adjusted[instrument]; s != nil {
		out.Points = append(out.Points, s.Points...)
	}
	return out, nil
}

// SaveAdjustedPrices replaces the stored series
func (m *MemoryStore) SaveAdjustedPrices(ctx context.Context, instrument string, series *contracts.AdjustedPriceSeries) error {
	cp := &contracts.AdjustedPriceSeries{Points: append([]contracts.AdjustedPoint(nil), series.Points...)}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjusted[instrument] = cp
	return nil
}
