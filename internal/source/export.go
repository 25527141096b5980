package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
)

// WriteRollCalendar writes a schedule as CSV
func WriteRollCalendar(w io.Writer, schedule *contracts.RollSchedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"DATE_TIME", "current_contract", "next_contract", "carry_contract"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if !schedule.Empty() {
		for _, e := range schedule.Events {
			if err := cw.Write([]string{
				e.RollDate.Format(dates.Layout),
				e.Current.String(),
				e.Next.String(),
				e.Carry.String(),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMultiplePrices writes a multiple price series as CSV. Undefined
// prices are written as empty cells.
func WriteMultiplePrices(w io.Writer, series *contracts.MultiplePriceSeries) error {
	cw := csv.NewWriter(w)
	header := []string{"DATETIME", "CARRY", "CARRY_CONTRACT", "PRICE", "PRICE_CONTRACT", "FORWARD", "FORWARD_CONTRACT"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < series.Len(); i++ {
		r := series.Rows[i]
		if err := cw.Write([]string{
			r.Date.Format(dates.Layout),
			formatPrice(r.Carry), contractCell(r.CarryContract),
			formatPrice(r.Price), contractCell(r.PriceContract),
			formatPrice(r.Forward), contractCell(r.ForwardContract),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAdjustedPrices writes an adjusted series as CSV
func WriteAdjustedPrices(w io.Writer, series *contracts.AdjustedPriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"DATETIME", "PRICE"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < series.Len(); i++ {
		p := series.Points[i]
		if err := cw.Write([]string{p.Date.Format(dates.Layout), formatPrice(p.Price)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPrice(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func contractCell(id contracts.ContractID) string {
	if id.IsZero() {
		return ""
	}
	return id.String()
}
