package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/rollcal"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// CalendarCheckJob audits persisted roll calendars against current prices
type CalendarCheckJob struct {
	source contracts.ContractPriceSource
	store  contracts.RollCalendarRepository
	list   ListFunc
	logger *logger.Logger
}

// NewCalendarCheckJob creates a new calendar audit job
func NewCalendarCheckJob(source contracts.ContractPriceSource, store contracts.RollCalendarRepository, list ListFunc, log *logger.Logger) *CalendarCheckJob {
	return &CalendarCheckJob{
		source: source,
		store:  store,
		list:   list,
		logger: log,
	}
}

// Name returns the job name
func (j *CalendarCheckJob) Name() string {
	return "calendar_check"
}

// Schedule returns the cron schedule (Saturday 06:00)
func (j *CalendarCheckJob) Schedule() string {
	return "0 0 6 * * 6"
}

// Run checks every instrument; issues are logged, not returned
func (j *CalendarCheckJob) Run(ctx context.Context) error {
	instruments, err := j.list(ctx)
	if err != nil {
		return fmt.Errorf("list instruments: %w", err)
	}

	withIssues := 0
	for _, code := range instruments {
		if err := ctx.Err(); err != nil {
			return err
		}

		schedule, err := j.store.GetRollCalendar(ctx, code)
		if err != nil {
			return fmt.Errorf("get roll calendar %s: %w", code, err)
		}
		if schedule.Empty() {
			continue
		}
		prices, err := j.source.LoadContractPrices(ctx, code)
		if err != nil {
			return fmt.Errorf("load prices %s: %w", code, err)
		}

		issues := rollcal.Check(schedule, prices)
		if len(issues) == 0 {
			continue
		}
		withIssues++
		for _, issue := range issues {
			j.logger.WithInstrument(code).Warn(issue)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"instruments": len(instruments),
		"with_issues": withIssues,
	}).Info("Roll calendar check completed")
	return nil
}
