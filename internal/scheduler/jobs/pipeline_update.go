package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/rollstitch/backend/internal/pipeline"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// ListFunc returns the instruments a job should process
type ListFunc func(ctx context.Context) ([]string, error)

// PipelineUpdateJob runs the incremental pipeline for every instrument
type PipelineUpdateJob struct {
	runner   *pipeline.Runner
	list     ListFunc
	schedule string
	logger   *logger.Logger
}

// NewPipelineUpdateJob creates a new daily update job
func NewPipelineUpdateJob(runner *pipeline.Runner, list ListFunc, schedule string, log *logger.Logger) *PipelineUpdateJob {
	return &PipelineUpdateJob{
		runner:   runner,
		list:     list,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *PipelineUpdateJob) Name() string {
	return "pipeline_update"
}

// Schedule returns the cron schedule (weekdays after settlement by default)
func (j *PipelineUpdateJob) Schedule() string {
	return j.schedule
}

// Run executes the batch. It fails only when no instrument succeeded so the
// scheduler retries outages but not single bad instruments.
func (j *PipelineUpdateJob) Run(ctx context.Context) error {
	instruments, err := j.list(ctx)
	if err != nil {
		return fmt.Errorf("list instruments: %w", err)
	}
	if len(instruments) == 0 {
		j.logger.Warn("No instruments to update")
		return nil
	}

	_, summary := j.runner.RunAll(ctx, instruments)

	if summary.Succeeded == 0 && summary.Failed > 0 {
		return fmt.Errorf("all %d instrument(s) failed", summary.Failed)
	}
	return nil
}
