package adjusted

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
)

type obs struct {
	contract string
	price    float64
}

// multiple builds consecutive daily rows starting 2024-03-01
func multiple(rows ...obs) *contracts.MultiplePriceSeries {
	start := dates.Day(2024, time.March, 1)
	out := &contracts.MultiplePriceSeries{}
	for i, r := range rows {
		id := contracts.MustParseContractID(r.contract)
		out.Rows = append(out.Rows, contracts.MultiplePriceRow{
			Date:            start.AddDate(0, 0, i),
			Price:           r.price,
			PriceContract:   id,
			Forward:         r.price,
			ForwardContract: id,
			Carry:           math.NaN(),
		})
	}
	return out
}

func prices(s *contracts.AdjustedPriceSeries) []float64 {
	out := make([]float64, s.Len())
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

func TestStitcher_Adjust_SingleContract(t *testing.T) {
	in := multiple(obs{"20240300", 100}, obs{"20240300", 101}, obs{"20240300", 99.5})

	for _, method := range []contracts.StitchMethod{contracts.StitchPanama, contracts.StitchRatio} {
		got, warnings, err := NewStitcher(nil).Adjust(in, method)
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, []float64{100, 101, 99.5}, prices(got), string(method))
	}
}

func TestStitcher_Adjust_Panama(t *testing.T) {
	in := multiple(
		obs{"20240300", 100}, obs{"20240300", 101},
		obs{"20240600", 105}, obs{"20240600", 106},
		obs{"20240900", 110},
	)

	got, warnings, err := NewStitcher(nil).Adjust(in, contracts.StitchPanama)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, []float64{100, 101, 101, 102, 102}, prices(got))

	// 경계 직전과 경계 당일 값이 같아야 함
	for _, i := range in.RollIndices()[1:] {
		assert.InDelta(t, got.Points[i-1].Price, got.Points[i].Price, 1e-9)
	}
	// 첫 구간은 원가격 유지
	assert.Equal(t, []float64{100, 101}, prices(got)[:2])
	// 최신 값 = 원가격 + 모든 갭 (pre - post)
	assert.InDelta(t, 110+(101-105)+(106-110), got.Points[4].Price, 1e-9)
}

func TestStitcher_Adjust_Ratio(t *testing.T) {
	in := multiple(obs{"20240300", 100}, obs{"20240300", 100}, obs{"20240600", 110}, obs{"20240600", 121})

	got, _, err := NewStitcher(nil).Adjust(in, contracts.StitchRatio)
	require.NoError(t, err)

	want := []float64{100, 100, 100, 110}
	for i, v := range prices(got) {
		assert.InDelta(t, want[i], v, 1e-9)
	}
}

func TestStitcher_Adjust_Guards(t *testing.T) {
	tests := []struct {
		name   string
		method contracts.StitchMethod
		in     *contracts.MultiplePriceSeries
		want   []float64
	}{
		{
			name:   "ratio with zero after roll",
			method: contracts.StitchRatio,
			in:     multiple(obs{"20240300", 100}, obs{"20240300", 100}, obs{"20240600", 0}, obs{"20240600", 10}),
			want:   []float64{100, 100, 0, 10},
		},
		{
			name:   "panama with undefined price before roll",
			method: contracts.StitchPanama,
			in:     multiple(obs{"20240300", 100}, obs{"20240300", math.NaN()}, obs{"20240600", 10}),
			want:   []float64{100, 10},
		},
		{
			name:   "panama with zero after roll",
			method: contracts.StitchPanama,
			in:     multiple(obs{"20240300", 100}, obs{"20240600", 0}),
			want:   []float64{100, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings, err := NewStitcher(nil).Adjust(tt.in, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.want, prices(got))
			assert.Equal(t, 1, warnings.Count(contracts.WarnAdjustmentSkipped))
			for _, v := range prices(got) {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			}
		})
	}
}

func TestStitcher_Adjust_DropsUndefined(t *testing.T) {
	in := multiple(obs{"20240300", 100}, obs{"20240300", math.NaN()}, obs{"20240300", 102})

	got, _, err := NewStitcher(nil).Adjust(in, contracts.StitchPanama)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 102}, prices(got))
	assert.Equal(t, in.Rows[2].Date, got.Points[1].Date)
}

func TestStitcher_Adjust_Methods(t *testing.T) {
	in := multiple(obs{"20240300", 100}, obs{"20240600", 103})
	s := NewStitcher(nil)

	panama, _, err := s.Adjust(in, contracts.StitchPanama)
	require.NoError(t, err)
	difference, _, err := s.Adjust(in, contracts.StitchDifference)
	require.NoError(t, err)
	assert.Equal(t, prices(panama), prices(difference))

	_, _, err = s.Adjust(in, contracts.StitchMethod("spline"))
	assert.True(t, errors.Is(err, contracts.ErrUnknownStitchMethod))

	_, _, err = s.Adjust(&contracts.MultiplePriceSeries{}, contracts.StitchPanama)
	assert.True(t, errors.Is(err, contracts.ErrEmptyMultiplePrices))
}

func TestStitcher_Update(t *testing.T) {
	s := NewStitcher(nil)
	full := multiple(obs{"20240300", 100}, obs{"20240600", 103}, obs{"20240600", 104})
	day := func(i int) time.Time { return full.Rows[i].Date }

	t.Run("level correction joins the splice", func(t *testing.T) {
		existing := &contracts.AdjustedPriceSeries{Points: []contracts.AdjustedPoint{
			{Date: day(0), Price: 50},
			{Date: day(1), Price: 53},
		}}

		got, _, err := s.Update(existing, full, contracts.StitchPanama)
		require.NoError(t, err)
		assert.Equal(t, []float64{50, 53, 53}, prices(got))
		assert.Equal(t, day(2), got.LastDate())
		assert.Equal(t, 53.0, existing.Points[1].Price, "persisted input untouched")
	})

	t.Run("nothing new", func(t *testing.T) {
		existing, _, err := s.Adjust(full, contracts.StitchPanama)
		require.NoError(t, err)

		got, warnings, err := s.Update(existing, full, contracts.StitchPanama)
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, prices(existing), prices(got))
	})

	t.Run("empty existing adjusts from scratch", func(t *testing.T) {
		got, _, err := s.Update(nil, full, contracts.StitchPanama)
		require.NoError(t, err)
		assert.Equal(t, []float64{100, 100, 101}, prices(got))
	})
}

func TestStitcher_Adjust_RatioZeroBeforeRoll(t *testing.T) {
	in := multiple(obs{"20240300", 0}, obs{"20240600", 10}, obs{"20240600", 12})

	got, warnings, err := NewStitcher(nil).Adjust(in, contracts.StitchRatio)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []float64{0, 0, 0}, prices(got))
}

func TestStitcher_Adjust_RollScenario(t *testing.T) {
	in := multiple(obs{"20240300", 100}, obs{"20240600", 103}, obs{"20240600", 104})

	for _, method := range []contracts.StitchMethod{contracts.StitchPanama, contracts.StitchRatio} {
		got, _, err := NewStitcher(nil).Adjust(in, method)
		require.NoError(t, err)

		want := []float64{100, 100, 101}
		if method == contracts.StitchRatio {
			want = []float64{100, 100, 104 * 100.0 / 103}
		}
		for i, v := range prices(got) {
			assert.InDelta(t, want[i], v, 1e-9, "%s point %d", method, i)
		}
	}
}
