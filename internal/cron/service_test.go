package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/metrics"
)

// fakeLock models a lease that another instance may already hold.
type fakeLock struct {
	held       bool
	acquireErr error
	acquires   int
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	f.acquires++
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (j *testJob) Name() string { return j.name }

func (j *testJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "cron-test"})})
	require.Error(t, err)

	svc, err := NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "cron-test"}), Lock: &fakeLock{}})
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, svc.interval)
}

func TestRunCycleContinuesPastFailingJob(t *testing.T) {
	failing := &testJob{name: "fail", err: errors.New("boom")}
	after := &testJob{name: "after"}
	lock := &fakeLock{}
	svc := newTestService(t, lock, failing, after)

	require.NoError(t, svc.runCycle(context.Background()))
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, after.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunCycleSkipsWhenLeaseHeldElsewhere(t *testing.T) {
	job := &testJob{name: "sweep"}
	svc := newTestService(t, &fakeLock{held: true}, job)

	require.NoError(t, svc.runCycle(context.Background()))
	assert.Zero(t, job.runs)
}

func TestRunCycleReportsLockErrors(t *testing.T) {
	job := &testJob{name: "sweep"}
	svc := newTestService(t, &fakeLock{acquireErr: errors.New("redis down")}, job)

	require.Error(t, svc.runCycle(context.Background()))
	assert.Zero(t, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "sweep"}
	svc := newTestService(t, &fakeLock{}, job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, job.runs, "the first cycle runs before waiting")
}

func TestRunJobByName(t *testing.T) {
	ctx := context.Background()
	sweep := &testJob{name: "sweep"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	svc := newTestService(t, lock, sweep, failing)

	require.NoError(t, svc.RunJob(ctx, "sweep"))
	assert.Equal(t, 1, sweep.runs)
	assert.Zero(t, failing.runs)
	assert.False(t, lock.held)

	assert.Error(t, svc.RunJob(ctx, "fail"))
	assert.Error(t, svc.RunJob(ctx, "missing"))

	lock.held = true
	assert.Error(t, svc.RunJob(ctx, "sweep"))
	assert.Equal(t, 1, sweep.runs)
}
