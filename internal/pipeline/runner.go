package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/metrics"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// RunnerConfig bounds a multi-instrument batch
type RunnerConfig struct {
	Workers       int     // 동시 처리 종목 수
	RatePerSecond float64 // 종목 시작 속도 (0 = 무제한)
}

// Runner fans instruments out to a bounded worker pool.
// One instrument's failure never aborts the batch.
type Runner struct {
	pipeline *Pipeline
	config   RunnerConfig
	limiter  *rate.Limiter
	metrics  *metrics.Registry
	log      *logger.Logger
}

// NewRunner creates a batch runner around p
func NewRunner(p *Pipeline, config RunnerConfig, m *metrics.Registry, log *logger.Logger) *Runner {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	var limiter *rate.Limiter
	if config.RatePerSecond > 0 {
		burst := int(config.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), burst)
	}

	return &Runner{
		pipeline: p,
		config:   config,
		limiter:  limiter,
		metrics:  m,
		log:      log.WithField("module", "runner"),
	}
}

type job struct {
	index      int
	instrument string
}

// RunAll runs every instrument and returns results in input order
func (r *Runner) RunAll(ctx context.Context, instruments []string) ([]InstrumentResult, BatchSummary) {
	start := time.Now()
	r.log.WithFields(map[string]interface{}{
		"instruments": len(instruments),
		"workers":     r.config.Workers,
		"rate":        r.config.RatePerSecond,
	}).Info("Starting pipeline batch")

	results := make([]InstrumentResult, len(instruments))
	jobCh := make(chan job, len(instruments))

	var wg sync.WaitGroup
	for i := 0; i < r.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r.worker(ctx, workerID, jobCh, results)
		}(i)
	}

	for i, code := range instruments {
		jobCh <- job{index: i, instrument: code}
	}
	close(jobCh)
	wg.Wait()

	summary := Summarize(results, time.Since(start))
	if r.metrics != nil {
		r.metrics.LastBatchEnd.SetToCurrentTime()
	}

	r.log.WithFields(map[string]interface{}{
		"total":       summary.Total,
		"succeeded":   summary.Succeeded,
		"failed":      summary.Failed,
		"no_data":     summary.NoData,
		"warnings":    summary.Warnings,
		"duration_ms": summary.Duration.Milliseconds(),
	}).Info("Pipeline batch completed")

	return results, summary
}

// worker processes instruments until the channel drains.
// Each worker writes only its own result slots.
func (r *Runner) worker(ctx context.Context, workerID int, jobCh <-chan job, results []InstrumentResult) {
	for j := range jobCh {
		if err := r.wait(ctx); err != nil {
			results[j.index] = canceled(j.instrument, err)
			continue
		}

		r.log.WithFields(map[string]interface{}{
			"worker":     workerID,
			"instrument": j.instrument,
		}).Debug("Instrument picked up")

		results[j.index] = r.pipeline.Run(ctx, j.instrument)
	}
}

// wait paces instrument starts and honours cancellation
func (r *Runner) wait(ctx context.Context) error {
	if r.limiter != nil {
		return r.limiter.Wait(ctx)
	}
	return ctx.Err()
}

func canceled(instrument string, err error) InstrumentResult {
	res := InstrumentResult{Instrument: instrument, StartedAt: time.Now()}
	res.fail(contracts.StageLoad, err)
	return res
}
