package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/metrics"
	"github.com/wonny/rollstitch/backend/pkg/logger"
	"github.com/wonny/rollstitch/backend/pkg/redis"
)

// ParameterResolver supplies per-instrument roll settings
type ParameterResolver interface {
	Parameters(code string) (contracts.RollParameters, error)
	StitchMethod(code string, fallback contracts.StitchMethod) (contracts.StitchMethod, error)
}

// Config holds orchestration settings
type Config struct {
	Method  contracts.StitchMethod // 종목 설정이 없을 때 기본 방식
	Rebuild bool                   // true면 저장된 시계열 무시하고 전체 재생성
	LockTTL time.Duration          // 분산 락 만료
}

// Pipeline sequences S0 → S1 → S2 → S3 → S4 for one instrument
// ⭐ SSOT: 종목별 파이프라인 순서는 여기서만
type Pipeline struct {
	config    Config
	source    contracts.ContractPriceSource
	store     contracts.SeriesStore
	params    ParameterResolver
	generator contracts.CalendarGenerator
	builder   contracts.MultiplePriceBuilder
	adjuster  contracts.PriceAdjuster

	locks   *keyedMutex
	locker  *redis.Locker
	metrics *metrics.Registry
	log     *logger.Logger
}

// Deps groups the collaborators of a Pipeline
type Deps struct {
	Source    contracts.ContractPriceSource
	Store     contracts.SeriesStore
	Params    ParameterResolver
	Generator contracts.CalendarGenerator
	Builder   contracts.MultiplePriceBuilder
	Adjuster  contracts.PriceAdjuster

	Locker  *redis.Locker     // optional, cross-process write lock
	Metrics *metrics.Registry // optional
}

// New creates a pipeline
func New(config Config, deps Deps, log *logger.Logger) *Pipeline {
	if config.Method == "" {
		config.Method = contracts.StitchPanama
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		config:    config,
		source:    deps.Source,
		store:     deps.Store,
		params:    deps.Params,
		generator: deps.Generator,
		builder:   deps.Builder,
		adjuster:  deps.Adjuster,
		locks:     newKeyedMutex(),
		locker:    deps.Locker,
		metrics:   deps.Metrics,
		log:       log.WithField("module", "pipeline"),
	}
}

// Run executes the pipeline for one instrument. Failures are reported in the
// result rather than returned so a batch can continue with other instruments.
func (p *Pipeline) Run(ctx context.Context, instrument string) (res InstrumentResult) {
	res = InstrumentResult{
		Instrument: instrument,
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
	}
	log := p.log.WithInstrument(instrument).WithField("run_id", res.RunID)

	if p.metrics != nil {
		p.metrics.ActiveRuns.Inc()
		defer p.metrics.ActiveRuns.Dec()
	}
	defer func() {
		res.Duration = time.Since(res.StartedAt)
		if p.metrics != nil {
			p.metrics.CountRun(string(res.Status))
		}
		p.logResult(log, res)
	}()

	// 종목별 단일 writer
	unlock := p.locks.Lock(instrument)
	defer unlock()

	if p.locker != nil {
		lock, err := p.locker.Lock(ctx, instrument, p.config.LockTTL)
		if err != nil {
			res.fail(contracts.StagePersist, fmt.Errorf("acquire write lock: %w", err))
			return res
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				log.WithError(err).Warn("Failed to release write lock")
			}
		}()
	}

	p.execute(ctx, &res)
	return res
}

func (p *Pipeline) execute(ctx context.Context, res *InstrumentResult) {
	instrument := res.Instrument

	// S0: 월물 가격 로드
	var prices contracts.ContractPrices
	err := p.stage(res, contracts.StageLoad, func() (int, int, contracts.Warnings, error) {
		var err error
		prices, err = p.source.LoadContractPrices(ctx, instrument)
		return 0, len(prices), nil, err
	})
	if err != nil {
		return
	}
	if len(prices) == 0 {
		res.Status = contracts.RunNoData
		res.Err = contracts.ErrNoData
		res.Error = contracts.ErrNoData.Error()
		return
	}
	res.Contracts = len(prices)

	params, err := p.params.Parameters(instrument)
	if err != nil {
		res.fail(contracts.StageRollCalendar, fmt.Errorf("roll parameters: %w", err))
		return
	}
	method, err := p.params.StitchMethod(instrument, p.config.Method)
	if err != nil {
		res.fail(contracts.StageAdjustedPrices, err)
		return
	}
	res.Method = method

	// S1: 롤 캘린더 (매 실행 전체 재생성)
	err = p.stage(res, contracts.StageRollCalendar, func() (int, int, contracts.Warnings, error) {
		schedule, ws, err := p.generator.Generate(prices, params)
		res.Schedule = schedule
		return len(prices), schedule.Len(), ws, err
	})
	if err != nil {
		return
	}
	res.Rolls = res.Schedule.Len()

	existingMultiple, existingAdjusted, err := p.existing(ctx, res)
	if err != nil {
		res.fail(contracts.StageLoad, err)
		return
	}
	res.Incremental = !existingMultiple.Empty()

	// S2: 멀티플 가격
	err = p.stage(res, contracts.StageMultiplePrices, func() (int, int, contracts.Warnings, error) {
		var (
			series *contracts.MultiplePriceSeries
			ws     contracts.Warnings
			err    error
		)
		if existingMultiple.Empty() {
			series, ws, err = p.builder.Build(prices, res.Schedule)
		} else {
			series, ws, err = p.builder.Update(existingMultiple, prices, res.Schedule)
		}
		res.Multiple = series
		return res.Schedule.Len(), series.Len(), ws, err
	})
	if err != nil {
		return
	}
	res.Rows = res.Multiple.Len()

	// S3: 조정 가격
	err = p.stage(res, contracts.StageAdjustedPrices, func() (int, int, contracts.Warnings, error) {
		var (
			series *contracts.AdjustedPriceSeries
			ws     contracts.Warnings
			err    error
		)
		if existingAdjusted.Empty() {
			series, ws, err = p.adjuster.Adjust(res.Multiple, method)
		} else {
			series, ws, err = p.adjuster.Update(existingAdjusted, res.Multiple, method)
		}
		res.Adjusted = series
		return res.Multiple.Len(), series.Len(), ws, err
	})
	if err != nil {
		return
	}
	res.Points = res.Adjusted.Len()

	// S4: 저장 (캘린더 → 멀티플 → 조정 순)
	err = p.stage(res, contracts.StagePersist, func() (int, int, contracts.Warnings, error) {
		if err := p.store.SaveRollCalendar(ctx, instrument, res.Schedule); err != nil {
			return 3, 0, nil, fmt.Errorf("save roll calendar: %w", err)
		}
		if err := p.store.SaveMultiplePrices(ctx, instrument, res.Multiple); err != nil {
			return 3, 1, nil, fmt.Errorf("save multiple prices: %w", err)
		}
		if err := p.store.SaveAdjustedPrices(ctx, instrument, res.Adjusted); err != nil {
			return 3, 2, nil, fmt.Errorf("save adjusted prices: %w", err)
		}
		return 3, 3, nil, nil
	})
	if err != nil {
		return
	}

	if p.metrics != nil {
		p.metrics.SetRows(instrument, "multiple", res.Rows)
		p.metrics.SetRows(instrument, "adjusted", res.Points)
	}
	res.Status = contracts.RunSuccess
}

// existing loads the persisted series used by the incremental path
func (p *Pipeline) existing(ctx context.Context, res *InstrumentResult) (*contracts.MultiplePriceSeries, *contracts.AdjustedPriceSeries, error) {
	if p.config.Rebuild {
		return nil, nil, nil
	}

	multiple, err := p.store.GetMultiplePrices(ctx, res.Instrument)
	if err != nil {
		return nil, nil, fmt.Errorf("get multiple prices: %w", err)
	}
	adjusted, err := p.store.GetAdjustedPrices(ctx, res.Instrument)
	if err != nil {
		return nil, nil, fmt.Errorf("get adjusted prices: %w", err)
	}
	// 멀티플 없이 조정 가격만 있으면 이어 붙일 기준이 없음
	if multiple.Empty() {
		adjusted = nil
	}
	return multiple, adjusted, nil
}

// stage runs fn and records its PipelineResult, warnings and metrics
func (p *Pipeline) stage(res *InstrumentResult, stage contracts.Stage, fn func() (in, out int, ws contracts.Warnings, err error)) error {
	start := time.Now()
	in, out, ws, err := fn()
	elapsed := time.Since(start)

	sr := contracts.PipelineResult{
		Stage:       stage,
		Success:     err == nil,
		InputCount:  in,
		OutputCount: out,
		Duration:    elapsed.Milliseconds(),
		Warnings:    len(ws),
	}
	if err != nil {
		sr.Error = err.Error()
		res.fail(stage, err)
	}
	res.Stages = append(res.Stages, sr)
	res.Warnings = append(res.Warnings, ws...)

	if p.metrics != nil {
		p.metrics.ObserveStage(stage.ShortName(), err == nil, elapsed)
		for _, w := range ws {
			p.metrics.CountWarning(w.Stage.ShortName(), string(w.Code))
		}
	}
	return err
}

func (p *Pipeline) logResult(log *logger.Logger, res InstrumentResult) {
	fields := map[string]interface{}{
		"status":      string(res.Status),
		"rolls":       res.Rolls,
		"rows":        res.Rows,
		"points":      res.Points,
		"warnings":    len(res.Warnings),
		"incremental": res.Incremental,
		"duration_ms": res.Duration.Milliseconds(),
	}

	switch res.Status {
	case contracts.RunSuccess:
		log.WithFields(fields).Info("Instrument pipeline completed")
	case contracts.RunNoData:
		log.WithFields(fields).Warn("No contract data, instrument skipped")
	default:
		fields["stage"] = res.FailedStage.ShortName()
		// 데이터 부족은 예상 가능한 실패
		if errors.Is(res.Err, contracts.ErrInsufficientContracts) || errors.Is(res.Err, contracts.ErrEmptyCalendar) {
			log.WithError(res.Err).WithFields(fields).Warn("Instrument skipped")
			return
		}
		log.WithError(res.Err).WithFields(fields).Error("Instrument pipeline failed")
	}
}
