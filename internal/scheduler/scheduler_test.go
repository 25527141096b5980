package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingJob fails until it has been called failUntil times
type countingJob struct {
	name      string
	schedule  string
	calls     int
	failUntil int
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }
func (j *countingJob) Run(ctx context.Context) error {
	j.calls++
	if j.calls <= j.failUntil {
		return errors.New("transient")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(Config{MaxRetries: 2, RetryDelay: time.Millisecond}, nil)
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "0 30 18 * * 1-5"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "not a cron"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_RunNow_Retries(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "flaky", schedule: "@daily", failUntil: 1}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Attempts)

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1.0, stats.SuccessRate)
	require.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestScheduler_RunNow_GivesUp(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "broken", schedule: "@daily", failUntil: 10}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow("broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, job.calls, "initial attempt plus two retries")
	assert.Equal(t, "transient", result.Error)

	history, err := s.GetJobHistory("broken")
	require.NoError(t, err)
	assert.Equal(t, 1, history.Failures())

	_, err = s.RunNow("missing")
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "daily", schedule: "@daily"}))

	s.Start()
	stats := s.GetJobStats()["daily"]
	require.NotNil(t, stats.NextRun)
	assert.True(t, stats.NextRun.After(time.Now()))
	s.Stop()
}

func TestJobHistory_Trims(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+5; i++ {
		h.Add(JobResult{Success: i%2 == 0})
	}

	assert.Equal(t, maxHistory, h.Len())
	assert.Len(t, h.Latest(3), 3)
	assert.InDelta(t, 0.5, h.SuccessRate(), 0.01)
}
