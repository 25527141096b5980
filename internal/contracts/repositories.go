package contracts

import (
	"context"
)

// ⭐ SSOT: 외부 협력자 인터페이스 정의는 여기서만

// ContractPriceSource supplies the raw per-contract bars of an instrument.
// An instrument with no contracts returns an empty map and no error.
type ContractPriceSource interface {
	LoadContractPrices(ctx context.Context, instrument string) (ContractPrices, error)
}

// ContractPriceRepository persists raw contract bars
type ContractPriceRepository interface {
	ContractPriceSource
	SaveContractPrices(ctx context.Context, instrument string, series *ContractPriceSeries) error
	ListInstruments(ctx context.Context) ([]string, error)
}

// RollCalendarRepository persists roll schedules
type RollCalendarRepository interface {
	GetRollCalendar(ctx context.Context, instrument string) (*RollSchedule, error)
	SaveRollCalendar(ctx context.Context, instrument string, schedule *RollSchedule) error
}

// MultiplePriceRepository persists multiple price series
type MultiplePriceRepository interface {
	GetMultiplePrices(ctx context.Context, instrument string) (*MultiplePriceSeries, error)
	SaveMultiplePrices(ctx context.Context, instrument string, series *MultiplePriceSeries) error
}

// AdjustedPriceRepository persists adjusted price series
type AdjustedPriceRepository interface {
	GetAdjustedPrices(ctx context.Context, instrument string) (*AdjustedPriceSeries, error)
	SaveAdjustedPrices(ctx context.Context, instrument string, series *AdjustedPriceSeries) error
}

// SeriesStore is the sink for all three pipeline outputs. Getters return an
// empty value (not an error) when nothing was persisted yet.
type SeriesStore interface {
	RollCalendarRepository
	MultiplePriceRepository
	AdjustedPriceRepository
}
