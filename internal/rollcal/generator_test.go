package rollcal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
)

// px is a (date, close, volume) fixture point
type px struct {
	date   time.Time
	close  float64
	volume float64
}

func d(month time.Month, day int) time.Time {
	return dates.Day(2024, month, day)
}

func series(id string, points ...px) *contracts.ContractPriceSeries {
	bars := make([]contracts.Bar, len(points))
	for i, p := range points {
		bars[i] = contracts.Bar{Date: p.date, Open: p.close, High: p.close, Low: p.close, Close: p.close, Volume: p.volume}
	}
	return contracts.MustContractPriceSeries(contracts.MustParseContractID(id), bars)
}

func priceMap(all ...*contracts.ContractPriceSeries) contracts.ContractPrices {
	out := make(contracts.ContractPrices, len(all))
	for _, s := range all {
		out[s.Contract] = s
	}
	return out
}

func quarterly(t *testing.T, carryOffset int) contracts.RollParameters {
	t.Helper()
	params, err := contracts.NewRollParameters("HMUZ", "HMUZ", -5, 0, carryOffset)
	require.NoError(t, err)
	return params
}

// scenarioPrices: 202403 closes 100 on 3/10-3/11, 202406 closes 103 on 3/11 and 104 on 3/12
func scenarioPrices() contracts.ContractPrices {
	return priceMap(
		series("20240300", px{d(3, 10), 100, 1000}, px{d(3, 11), 100, 1000}),
		series("20240600", px{d(3, 11), 103, 500}, px{d(3, 12), 104, 800}),
	)
}

func TestGenerator_Generate_Scenario(t *testing.T) {
	g := NewGenerator(DefaultConfig(), nil)

	schedule, warnings, err := g.Generate(scenarioPrices(), quarterly(t, -1))
	require.NoError(t, err)
	require.Equal(t, 1, schedule.Len())
	assert.Empty(t, warnings)

	e := schedule.Events[0]
	assert.Equal(t, d(3, 11), e.RollDate)
	assert.Equal(t, "20240300", e.Current.String())
	assert.Equal(t, "20240600", e.Next.String())
	assert.Equal(t, "20231200", e.Carry.String(), "H with offset -1 wraps to previous Z")
}

func TestGenerator_Generate_CarryWrap(t *testing.T) {
	prices := priceMap(
		series("20240300", px{d(3, 8), 100, 0}, px{d(3, 11), 100, 0}),
		series("20240600", px{d(3, 11), 103, 0}, px{d(6, 10), 105, 0}),
		series("20240900", px{d(6, 10), 107, 0}),
	)
	g := NewGenerator(DefaultConfig(), nil)

	schedule, _, err := g.Generate(prices, quarterly(t, -1))
	require.NoError(t, err)
	require.Equal(t, 2, schedule.Len())

	assert.Equal(t, "20231200", schedule.Events[0].Carry.String())
	assert.Equal(t, "20240300", schedule.Events[1].Carry.String(), "M resolves to same-year H")
}

func TestGenerator_Generate_Errors(t *testing.T) {
	g := NewGenerator(DefaultConfig(), nil)

	t.Run("insufficient hold contracts", func(t *testing.T) {
		prices := priceMap(
			series("20240300", px{d(3, 11), 100, 0}),
			series("20240400", px{d(3, 11), 101, 0}), // J is not in HMUZ
		)
		_, _, err := g.Generate(prices, quarterly(t, -1))
		assert.True(t, errors.Is(err, contracts.ErrInsufficientContracts))
	})

	t.Run("empty contract is not counted", func(t *testing.T) {
		prices := priceMap(
			series("20240300", px{d(3, 11), 100, 0}),
			series("20240600"),
		)
		_, warnings, err := g.Generate(prices, quarterly(t, -1))
		assert.True(t, errors.Is(err, contracts.ErrInsufficientContracts))
		assert.True(t, warnings.Has(contracts.WarnMissingContract))
	})

	t.Run("no roll inside the search window", func(t *testing.T) {
		prices := priceMap(
			series("20240300", px{d(5, 1), 100, 0}),
			series("20240600", px{d(5, 1), 103, 0}),
		)
		_, warnings, err := g.Generate(prices, quarterly(t, -1))
		assert.True(t, errors.Is(err, contracts.ErrEmptyCalendar))
		assert.True(t, warnings.Has(contracts.WarnNoRollDate))
	})

	t.Run("invalid parameters", func(t *testing.T) {
		_, _, err := g.Generate(scenarioPrices(), contracts.RollParameters{})
		var cfgErr *contracts.ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})
}

func TestGenerator_Generate_NoOverlapIsWarning(t *testing.T) {
	prices := priceMap(
		series("20240300", px{d(2, 20), 100, 0}),
		series("20240600", px{d(3, 11), 103, 0}, px{d(5, 28), 104, 0}),
		series("20240900", px{d(5, 28), 106, 0}),
	)
	g := NewGenerator(DefaultConfig(), nil)

	schedule, warnings, err := g.Generate(prices, quarterly(t, -1))
	require.NoError(t, err)
	require.Equal(t, 1, schedule.Len())
	assert.Equal(t, "20240600", schedule.Events[0].Current.String())
	assert.Equal(t, 1, warnings.Count(contracts.WarnNoOverlap))
}

func TestGenerator_Generate_Monotonic(t *testing.T) {
	// wide window lets the M->U roll snap before the H->M roll
	prices := priceMap(
		series("20240300", px{d(3, 20), 100, 0}),
		series("20240600", px{d(3, 15), 101, 0}, px{d(3, 20), 102, 0}),
		series("20240900", px{d(3, 15), 103, 0}),
	)
	g := NewGenerator(Config{MaxSearchDays: 200}, nil)

	schedule, warnings, err := g.Generate(prices, quarterly(t, -1))
	require.NoError(t, err)
	require.NoError(t, schedule.Validate())
	assert.Equal(t, []time.Time{d(3, 15), d(3, 20)}, schedule.RollDates())
	assert.True(t, warnings.Has(contracts.WarnNonMonotonic))
}

func TestGenerator_Generate_DuplicateDateDropped(t *testing.T) {
	prices := priceMap(
		series("20240300", px{d(3, 20), 100, 0}),
		series("20240600", px{d(3, 20), 102, 0}),
		series("20240900", px{d(3, 20), 103, 0}),
	)
	g := NewGenerator(Config{MaxSearchDays: 200}, nil)

	schedule, warnings, err := g.Generate(prices, quarterly(t, -1))
	require.NoError(t, err)
	require.Equal(t, 1, schedule.Len())
	assert.Equal(t, "20240300", schedule.Events[0].Current.String())
	assert.Equal(t, 1, warnings.Count(contracts.WarnNonMonotonic))
}

func TestGenerator_Generate_CarryFallback(t *testing.T) {
	tests := []struct {
		name        string
		priced      string
		carryOffset int
	}{
		{name: "month outside priced cycle", priced: "Z", carryOffset: -1},
		{name: "offset resolves to held contract", priced: "HMUZ", carryOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := contracts.NewRollParameters("HMUZ", tt.priced, -5, 0, tt.carryOffset)
			require.NoError(t, err)

			schedule, warnings, err := NewGenerator(DefaultConfig(), nil).Generate(scenarioPrices(), params)
			require.NoError(t, err)
			assert.Equal(t, schedule.Events[0].Next, schedule.Events[0].Carry)
			assert.True(t, warnings.Has(contracts.WarnCarryUndefined))
		})
	}
}
