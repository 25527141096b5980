package adjusted

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/rollstitch/backend/internal/contracts"
)

// largeMoveThreshold flags absolute daily moves above 20%
const largeMoveThreshold = 0.2

// Report summarises the quality of an adjusted series
type Report struct {
	Valid      bool      `json:"valid"`
	Issues     []string  `json:"issues"`
	Warnings   []string  `json:"warnings"`
	Points     int       `json:"points"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Mean       float64   `json:"mean"`
	StdDev     float64   `json:"std_dev"`
	Negative   int       `json:"negative"`
	LargeMoves int       `json:"large_moves"`
}

// Validate checks an adjusted series for ordering, negative values and
// implausibly large daily moves.
func Validate(series *contracts.AdjustedPriceSeries) Report {
	report := Report{
		Valid:    true,
		Issues:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	if series.Empty() {
		report.Valid = false
		report.Issues = append(report.Issues, "adjusted price series is empty")
		return report
	}

	report.Points = series.Len()
	report.From = series.Points[0].Date
	report.To = series.LastDate()
	report.Min, report.Max = math.Inf(1), math.Inf(-1)

	sum, defined := 0.0, 0
	for i, p := range series.Points {
		if math.IsNaN(p.Price) {
			report.Valid = false
			report.Issues = append(report.Issues, fmt.Sprintf("point %d: undefined price", i))
			continue
		}
		if i > 0 {
			prev := series.Points[i-1]
			if !p.Date.After(prev.Date) {
				report.Valid = false
				report.Issues = append(report.Issues, fmt.Sprintf("point %d: date not increasing", i))
			}
			if prev.Price != 0 && math.Abs(p.Price/prev.Price-1) > largeMoveThreshold {
				report.LargeMoves++
			}
		}
		if p.Price < 0 {
			report.Negative++
		}
		report.Min = math.Min(report.Min, p.Price)
		report.Max = math.Max(report.Max, p.Price)
		sum += p.Price
		defined++
	}

	if defined == 0 {
		report.Min, report.Max = 0, 0
		return report
	}
	n := float64(defined)
	report.Mean = sum / n
	if defined > 1 {
		ss := 0.0
		for _, p := range series.Points {
			if !math.IsNaN(p.Price) {
				ss += (p.Price - report.Mean) * (p.Price - report.Mean)
			}
		}
		report.StdDev = math.Sqrt(ss / (n - 1))
	}

	if report.Negative > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("found %d negative price values", report.Negative))
	}
	if report.LargeMoves > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("found %d large daily price changes (>20%%)", report.LargeMoves))
	}

	return report
}
