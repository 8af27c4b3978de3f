package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler(zap.NewNop(), time.Minute)
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("* * * * * *", job))

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsDuplicatesAndBadSpecs(t *testing.T) {
	s := NewScheduler(nil, 0)
	require.NoError(t, s.AddJob("0 0 3 * * *", &countingJob{name: "a"}))
	assert.Error(t, s.AddJob("0 0 4 * * *", &countingJob{name: "a"}))
	assert.Error(t, s.AddJob("not a spec", &countingJob{name: "b"}))
}

func TestRunJobNow(t *testing.T) {
	s := NewScheduler(nil, 0)
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: errors.New("boom")}
	require.NoError(t, s.AddJob("0 0 3 * * *", ok))
	require.NoError(t, s.AddJob("0 0 3 * * *", bad))

	require.NoError(t, s.RunJobNow("ok"))
	assert.Equal(t, int32(1), ok.runs.Load())
	assert.EqualError(t, s.RunJobNow("bad"), "boom")
	assert.Error(t, s.RunJobNow("missing"))
}
