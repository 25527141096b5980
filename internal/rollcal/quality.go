package rollcal

import (
	"math"
	"time"

	"github.com/wonny/rollstitch/backend/internal/contracts"
)

// qualityWindowDays bounds the price lookup around a roll date
const qualityWindowDays = 3

// RollQuality describes the price transition at one roll
type RollQuality struct {
	RollDate     time.Time            `json:"roll_date"`
	Current      contracts.ContractID `json:"current_contract"`
	Next         contracts.ContractID `json:"next_contract"`
	CurrentPrice float64              `json:"current_price"`
	NextPrice    float64              `json:"next_price"`
	Gap          float64              `json:"price_gap"`      // next - current
	GapPercent   float64              `json:"gap_percentage"` // gap / current * 100
	VolumeRatio  float64              `json:"volume_ratio"`   // next / current volume
}

// Defined reports whether both roll prices were found
func (q RollQuality) Defined() bool {
	return !math.IsNaN(q.Gap)
}

// AnalyzeRolls measures the gap of every roll using closes on or within three
// days of the roll date. Undefined measures are NaN.
func AnalyzeRolls(schedule *contracts.RollSchedule, prices contracts.ContractPrices) []RollQuality {
	out := make([]RollQuality, 0, schedule.Len())
	if schedule.Empty() {
		return out
	}

	for _, e := range schedule.Events {
		q := RollQuality{
			RollDate:     e.RollDate,
			Current:      e.Current,
			Next:         e.Next,
			CurrentPrice: math.NaN(),
			NextPrice:    math.NaN(),
			Gap:          math.NaN(),
			GapPercent:   math.NaN(),
			VolumeRatio:  math.NaN(),
		}

		curBar, curOK := prices[e.Current].BarNear(e.RollDate, qualityWindowDays)
		nxtBar, nxtOK := prices[e.Next].BarNear(e.RollDate, qualityWindowDays)
		if curOK && nxtOK {
			q.CurrentPrice = curBar.Close
			q.NextPrice = nxtBar.Close
			q.Gap = nxtBar.Close - curBar.Close
			if curBar.Close != 0 {
				q.GapPercent = q.Gap / curBar.Close * 100
			}
			if curBar.Volume > 0 {
				q.VolumeRatio = nxtBar.Volume / curBar.Volume
			}
		}

		out = append(out, q)
	}

	return out
}
