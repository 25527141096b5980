package multiple

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/rollstitch/backend/internal/contracts"
)

// missingWarnPercent is the share of undefined values that triggers a warning
const missingWarnPercent = 10.0

// Report summarises the quality of a multiple price series
type Report struct {
	Valid           bool               `json:"valid"`
	Issues          []string           `json:"issues"`
	Warnings        []string           `json:"warnings"`
	Rows            int                `json:"rows"`
	From            time.Time          `json:"from"`
	To              time.Time          `json:"to"`
	MissingPercent  map[string]float64 `json:"missing_percent"`
	ContractChanges map[string]int     `json:"contract_changes"`
}

// Validate checks a multiple price series for gaps and ordering problems
func Validate(series *contracts.MultiplePriceSeries) Report {
	report := Report{
		Valid:           true,
		Issues:          make([]string, 0),
		Warnings:        make([]string, 0),
		MissingPercent:  make(map[string]float64),
		ContractChanges: make(map[string]int),
	}

	if series.Empty() {
		report.Valid = false
		report.Issues = append(report.Issues, "multiple price series is empty")
		return report
	}

	report.Rows = series.Len()
	report.From = series.Rows[0].Date
	report.To = series.LastDate()

	var missingPrice, missingForward, missingCarry int
	for i, r := range series.Rows {
		if i > 0 {
			prev := series.Rows[i-1]
			if !r.Date.After(prev.Date) {
				report.Valid = false
				report.Issues = append(report.Issues, fmt.Sprintf("row %d: date not increasing", i))
			}
			if r.PriceContract != prev.PriceContract {
				report.ContractChanges["price"]++
				if r.PriceContract.Before(prev.PriceContract) {
					report.Valid = false
					report.Issues = append(report.Issues,
						fmt.Sprintf("row %d: held contract goes back from %s to %s", i, prev.PriceContract, r.PriceContract))
				}
			}
			if r.ForwardContract != prev.ForwardContract {
				report.ContractChanges["forward"]++
			}
			if r.CarryContract != prev.CarryContract {
				report.ContractChanges["carry"]++
			}
		}

		if r.PriceContract.IsZero() || math.IsNaN(r.Price) {
			missingPrice++
		}
		if !r.HasForward() {
			missingForward++
		}
		if !r.HasCarry() {
			missingCarry++
		}
	}

	if missingPrice > 0 {
		report.Valid = false
		report.Issues = append(report.Issues, fmt.Sprintf("%d row(s) without PRICE", missingPrice))
	}

	counts := []struct {
		col string
		n   int
	}{{"price", missingPrice}, {"forward", missingForward}, {"carry", missingCarry}}
	for _, c := range counts {
		col, pct := c.col, float64(c.n)/float64(report.Rows)*100
		report.MissingPercent[col] = pct
		if pct > missingWarnPercent {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s has %.1f%% missing values", col, pct))
		}
	}

	return report
}
