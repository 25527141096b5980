package contracts

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/rollstitch/backend/internal/dates"
)

// Pipeline failures that end an instrument run.
// ⭐ SSOT: 파이프라인 에러는 여기서만 정의
var (
	ErrInsufficientContracts = errors.New("fewer than two hold-cycle contracts")
	ErrEmptyCalendar         = errors.New("roll calendar is empty")
	ErrNoValidRollDate       = errors.New("no valid roll date")
	ErrEmptyMultiplePrices   = errors.New("multiple price series is empty")
	ErrUnknownStitchMethod   = errors.New("unknown stitch method")
	ErrNoData                = errors.New("no contract data available")
)

// WarningCode classifies a non-fatal data-quality event
type WarningCode string

const (
	WarnNoOverlap          WarningCode = "NO_OVERLAP"
	WarnNoRollDate         WarningCode = "NO_ROLL_DATE"
	WarnMissingContract    WarningCode = "MISSING_CONTRACT"
	WarnMissingRollPrice   WarningCode = "MISSING_ROLL_PRICE"
	WarnNonMonotonic       WarningCode = "NON_MONOTONIC"
	WarnCarryUndefined     WarningCode = "CARRY_UNDEFINED"
	WarnMissingPrice       WarningCode = "MISSING_PRICE"
	WarnInconsistentUpdate WarningCode = "INCONSISTENT_UPDATE"
	WarnAdjustmentSkipped  WarningCode = "ADJUSTMENT_SKIPPED"
)

// Warning is a data-quality signal returned next to successful output
type Warning struct {
	Stage   Stage       `json:"stage"`
	Code    WarningCode `json:"code"`
	Date    time.Time   `json:"date,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Date.IsZero() {
		return fmt.Sprintf("[%s] %s: %s", w.Stage.ShortName(), w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", w.Stage.ShortName(), w.Code, w.Date.Format(dates.Layout), w.Message)
}

// Fields returns the warning as structured log fields
func (w Warning) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"stage": w.Stage.ShortName(),
		"code":  string(w.Code),
	}
	if !w.Date.IsZero() {
		fields["date"] = w.Date.Format(dates.Layout)
	}
	return fields
}

// Warnings is an accumulated list of warnings
type Warnings []Warning

// Add appends a warning
func (ws *Warnings) Add(stage Stage, code WarningCode, date time.Time, format string, args ...interface{}) {
	*ws = append(*ws, Warning{
		Stage:   stage,
		Code:    code,
		Date:    date,
		Message: fmt.Sprintf(format, args...),
	})
}

// Has reports whether any warning carries code
func (ws Warnings) Has(code WarningCode) bool {
	return ws.Count(code) > 0
}

// Count returns the number of warnings with code
func (ws Warnings) Count(code WarningCode) int {
	n := 0
	for _, w := range ws {
		if w.Code == code {
			n++
		}
	}
	return n
}
