package pipeline

import (
	"time"

	"github.com/wonny/rollstitch/backend/internal/contracts"
)

// InstrumentResult is the outcome of one instrument run
type InstrumentResult struct {
	Instrument  string                     `json:"instrument"`
	RunID       string                     `json:"run_id"`
	Status      contracts.RunStatus        `json:"status"`
	FailedStage contracts.Stage            `json:"failed_stage,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Err         error                      `json:"-"`
	Incremental bool                       `json:"incremental"`
	Method      contracts.StitchMethod     `json:"method"`
	Stages      []contracts.PipelineResult `json:"stages"`
	Warnings    contracts.Warnings         `json:"warnings"`
	Contracts   int                        `json:"contracts"`
	Rolls       int                        `json:"rolls"`
	Rows        int                        `json:"rows"`
	Points      int                        `json:"points"`
	StartedAt   time.Time                  `json:"started_at"`
	Duration    time.Duration              `json:"duration"`

	// 산출물 (CLI 내보내기, 테스트용)
	Schedule *contracts.RollSchedule        `json:"-"`
	Multiple *contracts.MultiplePriceSeries `json:"-"`
	Adjusted *contracts.AdjustedPriceSeries `json:"-"`
}

// OK reports whether the run persisted all three outputs
func (r InstrumentResult) OK() bool {
	return r.Status == contracts.RunSuccess
}

// fail marks the result as failed at stage
func (r *InstrumentResult) fail(stage contracts.Stage, err error) {
	r.Status = contracts.RunFailed
	r.FailedStage = stage
	r.Err = err
	r.Error = err.Error()
}

// BatchSummary aggregates the results of a multi-instrument run
type BatchSummary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	NoData    int           `json:"no_data"`
	Warnings  int           `json:"warnings"`
	Duration  time.Duration `json:"duration"`
}

// Summarize counts results by status
func Summarize(results []InstrumentResult, elapsed time.Duration) BatchSummary {
	s := BatchSummary{Total: len(results), Duration: elapsed}
	for _, r := range results {
		switch r.Status {
		case contracts.RunSuccess:
			s.Succeeded++
		case contracts.RunNoData:
			s.NoData++
		default:
			s.Failed++
		}
		s.Warnings += len(r.Warnings)
	}
	return s
}
