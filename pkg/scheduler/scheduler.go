// Package scheduler runs a job at the minutes selected by a cron expression. The schedule is checked at a fixed interval
// against the current wall-clock time, so runs are aligned to the clock rather than to the time the scheduler started.
package scheduler

import (
	"context"
	"fmt"
	"github.com/robfig/cron/v3"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultSchedule = "*/10 * * * *"
	DefaultInterval = time.Minute
)

// A Job is run by the Scheduler. Errors should be handled by the Job itself.
type Job func(ctx context.Context)

type Scheduler struct {
	// Now returns the current time. Defaults to time.Now. Can be overridden for testing.
	Now      func() time.Time
	spec     string
	schedule cron.Schedule
	interval time.Duration
	logger   *slog.Logger
	refresh  chan struct{}
	running  atomic.Bool
	wg       sync.WaitGroup
}

// New returns a Scheduler for the provided (five-field) cron expression, checked every interval. An empty spec
// selects DefaultSchedule.
func New(spec string, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		Now:      time.Now,
		spec:     spec,
		schedule: schedule,
		interval: interval,
		logger:   logger,
		refresh:  make(chan struct{}, 1),
	}, nil
}

// Run runs the job once immediately and then every time the schedule is due, until ctx is canceled. If the previous
// run of the job hasn't completed yet, the next run is skipped. Run waits for any running job to complete.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	s.logger.Debug("started", slog.String("schedule", s.spec), slog.Duration("interval", s.interval))
	defer s.logger.Debug("stopped")
	defer s.wg.Wait()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.trigger(ctx, job)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.Due(s.Now()) {
				s.trigger(ctx, job)
			}
		case <-s.refresh:
			s.trigger(ctx, job)
		}
	}
}

// Refresh runs the job as soon as possible, outside the schedule.
func (s *Scheduler) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Due returns true if the schedule fires during the minute of t.
func (s *Scheduler) Due(t time.Time) bool {
	minute := t.Truncate(time.Minute)
	return s.schedule.Next(minute.Add(-time.Second)).Equal(minute)
}

func (s *Scheduler) trigger(ctx context.Context, job Job) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress. skipping")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		job(ctx)
	}()
}
