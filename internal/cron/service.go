package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/metrics"
)

const defaultInterval = time.Hour

var errLeaseHeld = errors.New("cron lease held by another worker")

// ServiceParams wires a Service. Registry and Metrics are optional; Interval
// falls back to one hour.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs the registered jobs in order once per interval. Every run
// happens under Lock so only one worker in the fleet does the work.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("cron: logger is required")
	case params.Lock == nil:
		return nil, fmt.Errorf("cron: lock is required")
	}
	s := &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	return s, nil
}

// Run fires a cycle right away and then on every tick. It returns ctx.Err()
// once ctx is done; cycle failures are only logged.
func (s *Service) Run(ctx context.Context) error {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "cron.cycle_failed", err)
		}
		select {
		case <-tick.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunJob executes one job by name, still under the fleet lease.
func (s *Service) RunJob(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("cron: no job named %q", name)
	}
	held, err := s.underLease(ctx, func() error { return s.execute(ctx, job) })
	if err != nil {
		return err
	}
	if !held {
		return errLeaseHeld
	}
	return nil
}

func (s *Service) runCycle(ctx context.Context) error {
	held, err := s.underLease(ctx, func() error {
		var failed int
		for _, job := range s.registry.Jobs() {
			if s.execute(ctx, job) != nil {
				failed++
			}
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"jobs":   len(s.registry.Jobs()),
			"failed": failed,
		}), "cron.cycle_done")
		return nil
	})
	if err == nil && !held {
		s.logg.Debug(ctx, "cron.cycle_skipped")
	}
	return err
}

// underLease reports false without calling fn when another worker holds the
// lease.
func (s *Service) underLease(ctx context.Context, fn func() error) (bool, error) {
	ok, err := s.lock.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("cron: acquire lease: %w", err)
	}
	if !ok {
		return false, nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "cron.lease_release_failed", err)
		}
	}()
	return true, fn()
}

func (s *Service) execute(ctx context.Context, job Job) error {
	name := job.Name()
	ctx = s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})

	started := time.Now()
	err := job.Run(ctx)
	finished := time.Now()
	s.metrics.RecordRun(name, finished.Sub(started), finished, err)

	ctx = s.logg.WithField(ctx, "duration_ms", finished.Sub(started).Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron.job_failed", err)
		return err
	}
	s.logg.Info(ctx, "cron.job_done")
	return nil
}
