package adjusted

import (
	"math"
	"time"

	"github.com/wonny/rollstitch/backend/internal/contracts"
)

// ReturnPoint holds the returns ending on Date
type ReturnPoint struct {
	Date       time.Time `json:"date"`
	Simple     float64   `json:"returns"`
	Log        float64   `json:"log_returns"`
	Cumulative float64   `json:"cum_returns"`
}

// Returns computes simple, log and cumulative returns of an adjusted series.
// The first point has no return and is omitted, as is any step from a
// non-positive price.
func Returns(series *contracts.AdjustedPriceSeries) []ReturnPoint {
	out := make([]ReturnPoint, 0, series.Len())
	growth := 1.0

	for i := 1; i < series.Len(); i++ {
		prev, cur := series.Points[i-1].Price, series.Points[i].Price
		if prev <= 0 || cur <= 0 {
			continue
		}
		simple := cur/prev - 1
		growth *= 1 + simple
		out = append(out, ReturnPoint{
			Date:       series.Points[i].Date,
			Simple:     simple,
			Log:        math.Log(cur / prev),
			Cumulative: growth - 1,
		})
	}

	return out
}
