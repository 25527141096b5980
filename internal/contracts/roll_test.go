package contracts

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rollstitch/backend/internal/dates"
)

func TestNewRollParameters(t *testing.T) {
	tests := []struct {
		name      string
		hold      string
		priced    string
		rollDays  int
		carry     int
		wantField string
	}{
		{name: "valid quarterly", hold: "HMUZ", priced: "HMUZ", rollDays: -5, carry: -1},
		{name: "early roller", hold: "Z", priced: "FGHJKMNQUVXZ", rollDays: -1500, carry: 1},
		{name: "positive roll offset", hold: "HMUZ", priced: "HMUZ", rollDays: 3, wantField: "roll_offset_days"},
		{name: "roll offset too large", hold: "HMUZ", priced: "HMUZ", rollDays: -2001, wantField: "roll_offset_days"},
		{name: "carry offset too large", hold: "HMUZ", priced: "HMUZ", carry: 13, wantField: "carry_offset"},
		{name: "empty hold cycle", hold: "", priced: "HMUZ", wantField: "hold_cycle"},
		{name: "invalid priced cycle", hold: "HMUZ", priced: "HMUA", wantField: "priced_cycle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRollParameters(tt.hold, tt.priced, tt.rollDays, 0, tt.carry)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "want ConfigError, got %v", err)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestRollParameters_ApproximateRollDate(t *testing.T) {
	params, err := NewRollParameters("HMUZ", "HMUZ", -5, 14, -1)
	require.NoError(t, err)

	c := MustParseContractID("20240300")
	assert.Equal(t, dates.Day(2024, time.March, 15), params.NotionalExpiry(c))
	assert.Equal(t, dates.Day(2024, time.March, 10), params.ApproximateRollDate(c))
}

func TestRollSchedule_HoldingOn(t *testing.T) {
	h := MustParseContractID("20240300")
	m := MustParseContractID("20240600")
	u := MustParseContractID("20240900")
	z := MustParseContractID("20231200")

	schedule := &RollSchedule{Events: []RollEvent{
		{RollDate: dates.Day(2024, time.February, 25), Current: h, Next: m, Carry: z},
		{RollDate: dates.Day(2024, time.May, 26), Current: m, Next: u, Carry: h},
	}}
	require.NoError(t, schedule.Validate())

	before := schedule.HoldingOn(dates.Day(2024, time.January, 2))
	assert.Equal(t, h, before.Price)
	assert.Equal(t, m, before.Forward)

	onRoll := schedule.HoldingOn(dates.Day(2024, time.February, 25))
	assert.Equal(t, m, onRoll.Price, "roll date belongs to the next contract")
	assert.Equal(t, u, onRoll.Forward)

	trailing := schedule.HoldingOn(dates.Day(2024, time.July, 1))
	assert.Equal(t, u, trailing.Price)
	assert.True(t, trailing.Forward.IsZero())
}

func TestRollSchedule_Validate(t *testing.T) {
	d := dates.Day(2024, time.March, 1)
	schedule := &RollSchedule{Events: []RollEvent{{RollDate: d}, {RollDate: d}}}
	assert.Error(t, schedule.Validate())

	schedule.Events[1].RollDate = d.AddDate(0, 0, -1)
	assert.True(t, schedule.Sort())
	assert.NoError(t, schedule.Validate())
}

func TestMultiplePriceRow_JSON(t *testing.T) {
	row := MultiplePriceRow{
		Date:          dates.Day(2024, time.March, 11),
		Price:         103,
		PriceContract: MustParseContractID("20240600"),
		Forward:       math.NaN(),
		Carry:         100,
		CarryContract: MustParseContractID("20240300"),
	}

	data, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"forward":null`)

	var decoded MultiplePriceRow
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.True(t, decoded.Equal(row))
	assert.False(t, decoded.HasForward())
}
