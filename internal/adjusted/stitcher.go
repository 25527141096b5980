package adjusted

import (
	"fmt"
	"math"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// Stitcher back-adjusts multiple prices into one continuous series
// ⭐ SSOT: S3 연속 조정 가격 생성
type Stitcher struct {
	log *logger.Logger
}

var _ contracts.PriceAdjuster = (*Stitcher)(nil)

// NewStitcher creates a new stitcher
func NewStitcher(log *logger.Logger) *Stitcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Stitcher{log: log}
}

// Adjust removes the PRICE discontinuity at every roll. The earliest segment
// keeps its raw level; every value from a roll onward is shifted (panama) or
// scaled (ratio) onto the level of the contract that was rolled out of.
func (s *Stitcher) Adjust(multiple *contracts.MultiplePriceSeries, method contracts.StitchMethod) (*contracts.AdjustedPriceSeries, contracts.Warnings, error) {
	var warnings contracts.Warnings

	method, err := contracts.ParseStitchMethod(string(method))
	if err != nil {
		return nil, nil, err
	}
	if multiple.Empty() {
		return nil, nil, contracts.ErrEmptyMultiplePrices
	}

	values := make([]float64, multiple.Len())
	for i, r := range multiple.Rows {
		values[i] = r.Price
	}

	// 롤 경계: 역순으로 처리, 첫 경계(데이터 시작)는 제외
	boundaries := multiple.RollIndices()
	for k := len(boundaries) - 1; k >= 1; k-- {
		i := boundaries[k]
		pre, post := values[i-1], values[i]
		row := multiple.Rows[i]

		if reason := guard(pre, post); reason != "" {
			warnings.Add(contracts.StageAdjustedPrices, contracts.WarnAdjustmentSkipped, row.Date,
				"roll %s -> %s left unadjusted: %s", multiple.Rows[i-1].PriceContract, row.PriceContract, reason)
			continue
		}

		switch method.Canonical() {
		case contracts.StitchRatio:
			ratio := pre / post
			shiftFrom(values[i:], func(v float64) float64 { return v * ratio })
		default:
			gap := pre - post
			shiftFrom(values[i:], func(v float64) float64 { return v + gap })
		}
	}

	out := &contracts.AdjustedPriceSeries{Points: make([]contracts.AdjustedPoint, 0, len(values))}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.Points = append(out.Points, contracts.AdjustedPoint{Date: multiple.Rows[i].Date, Price: v})
	}
	if out.Empty() {
		return nil, warnings, contracts.ErrEmptyMultiplePrices
	}

	s.log.WithFields(map[string]interface{}{
		"stage":    contracts.StageAdjustedPrices.ShortName(),
		"method":   string(method),
		"rolls":    len(boundaries) - 1,
		"points":   out.Len(),
		"warnings": len(warnings),
	}).Debug("Adjusted prices built")
	logWarnings(s.log, warnings)

	return out, warnings, nil
}

// Update recomputes the adjusted series and appends the points after the
// last persisted date. The appended points are shifted by
// last persisted price - first new price so that the series joins at the
// splice. Persisted points are never changed.
func (s *Stitcher) Update(existing *contracts.AdjustedPriceSeries, multiple *contracts.MultiplePriceSeries, method contracts.StitchMethod) (*contracts.AdjustedPriceSeries, contracts.Warnings, error) {
	if existing.Empty() {
		return s.Adjust(multiple, method)
	}

	out := &contracts.AdjustedPriceSeries{Points: make([]contracts.AdjustedPoint, 0, existing.Len())}
	out.Points = append(out.Points, existing.Points...)

	last := existing.LastDate()
	if multiple.Empty() || !multiple.LastDate().After(last) {
		return out, nil, nil
	}

	full, warnings, err := s.Adjust(multiple, method)
	if err != nil {
		return nil, warnings, fmt.Errorf("recompute adjusted prices: %w", err)
	}

	start := len(full.Points)
	for i, p := range full.Points {
		if p.Date.After(last) {
			start = i
			break
		}
	}
	suffix := full.Points[start:]
	if len(suffix) == 0 {
		return out, warnings, nil
	}

	level := 0.0
	lastPrice, firstNew := existing.Points[existing.Len()-1].Price, suffix[0].Price
	if !math.IsNaN(lastPrice) && !math.IsNaN(firstNew) && firstNew != 0 {
		level = lastPrice - firstNew
	}
	for _, p := range suffix {
		out.Points = append(out.Points, contracts.AdjustedPoint{Date: p.Date, Price: p.Price + level})
	}

	s.log.WithFields(map[string]interface{}{
		"existing": existing.Len(),
		"added":    len(suffix),
		"level":    level,
	}).Debug("Adjusted prices updated")

	return out, warnings, nil
}

// guard returns why a boundary cannot be adjusted, or ""
func guard(pre, post float64) string {
	switch {
	case math.IsNaN(pre) || math.IsNaN(post):
		return "undefined price at boundary"
	case post == 0:
		return "zero price after roll"
	}
	return ""
}

func shiftFrom(values []float64, f func(float64) float64) {
	for j := range values {
		values[j] = f(values[j])
	}
}

func logWarnings(log *logger.Logger, warnings contracts.Warnings) {
	for _, w := range warnings {
		log.WithFields(w.Fields()).Warn(w.Message)
	}
}
