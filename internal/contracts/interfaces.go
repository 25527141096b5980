package contracts

// CalendarGenerator builds roll schedules (S1)
// ⭐ SSOT: S1 롤 캘린더 인터페이스
type CalendarGenerator interface {
	Generate(prices ContractPrices, params RollParameters) (*RollSchedule, Warnings, error)
}

// MultiplePriceBuilder builds and extends multiple price series (S2)
// ⭐ SSOT: S2 멀티플 가격 인터페이스
type MultiplePriceBuilder interface {
	Build(prices ContractPrices, schedule *RollSchedule) (*MultiplePriceSeries, Warnings, error)
	Update(existing *MultiplePriceSeries, prices ContractPrices, schedule *RollSchedule) (*MultiplePriceSeries, Warnings, error)
}

// PriceAdjuster stitches multiple prices into one continuous series (S3)
// ⭐ SSOT: S3 조정 가격 인터페이스
type PriceAdjuster interface {
	Adjust(multiple *MultiplePriceSeries, method StitchMethod) (*AdjustedPriceSeries, Warnings, error)
	Update(existing *AdjustedPriceSeries, multiple *MultiplePriceSeries, method StitchMethod) (*AdjustedPriceSeries, Warnings, error)
}
