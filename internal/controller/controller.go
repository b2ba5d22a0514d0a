package controller

import (
	"context"
	"errors"
	"github.com/clambin/sunguard/internal/configuration"
	"github.com/clambin/sunguard/internal/controller/notifier"
	"github.com/clambin/sunguard/internal/weerlive"
	"github.com/clambin/sunguard/pkg/pubsub"
	"github.com/clambin/sunguard/pkg/scheduler"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type Fetcher interface {
	Fetch(ctx context.Context) (weerlive.Snapshot, error)
}

// Registry receives the state of each sensor.
type Registry interface {
	Register(name string)
	Unregister(name string)
	SetState(name string, open bool)
}

type Scheduler interface {
	Run(ctx context.Context, job scheduler.Job) error
	Refresh()
}

// A Controller evaluates all sensors against the current weather, every time its Scheduler runs. It reports the state
// of each sensor to the Registry, uses a Notifier to inform the user when a sensor opens or closes and publishes
// the outcome of each successful cycle as a Report.
type Controller struct {
	*pubsub.Publisher[Report]
	Fetcher   Fetcher
	Registry  Registry
	Notifier  notifier.Notifier
	Scheduler Scheduler
	Metrics   *Metrics
	// Now returns the current time. Defaults to time.Now.
	Now      func() time.Time
	platform configuration.Platform
	sensors  []configuration.Sensor
	states   map[string]bool
	logger   *slog.Logger
	lock     sync.RWMutex
	running  atomic.Bool
}

// New creates a Controller for the provided sensors and registers each sensor with the Registry. All sensors start closed.
func New(platform configuration.Platform, sensors []configuration.Sensor, f Fetcher, r Registry, n notifier.Notifier, s Scheduler, logger *slog.Logger) *Controller {
	c := Controller{
		Publisher: pubsub.New[Report](logger),
		Fetcher:   f,
		Registry:  r,
		Notifier:  n,
		Scheduler: s,
		Now:       time.Now,
		platform:  platform,
		sensors:   sensors,
		states:    make(map[string]bool, len(sensors)),
		logger:    logger,
	}
	for _, sensor := range sensors {
		c.states[sensor.Name] = false
		c.Registry.Register(sensor.Name)
	}
	return &c
}

// Run runs an evaluation cycle every time the Scheduler fires, until ctx is canceled. On exit, all sensors are
// unregistered from the Registry.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Debug("controller starting", "sensors", len(c.sensors))
	defer c.logger.Debug("controller stopping")

	defer func() {
		for _, sensor := range c.sensors {
			c.Registry.Unregister(sensor.Name)
		}
	}()

	return c.Scheduler.Run(ctx, func(ctx context.Context) {
		if err := c.Cycle(ctx); err != nil {
			c.logError(err)
		}
	})
}

// Refresh asks the Scheduler to run a cycle as soon as possible.
func (c *Controller) Refresh() {
	c.Scheduler.Refresh()
}

// Cycle fetches the weather, evaluates all sensors and applies the outcome. If the weather can't be fetched or
// evaluated, no sensor changes state. If a previous cycle is still running, Cycle returns ErrCycleInProgress.
func (c *Controller) Cycle(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		c.Metrics.observe(ErrCycleInProgress)
		return ErrCycleInProgress
	}
	defer c.running.Store(false)

	err := c.cycle(ctx)
	c.Metrics.observe(err)
	return err
}

func (c *Controller) cycle(ctx context.Context) error {
	snapshot, err := c.Fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	c.logger.Debug("weather received", "weather", snapshot)

	report, err := Evaluate(c.platform, c.sensors, snapshot, c.Now(), c.State)
	if err != nil {
		return err
	}
	c.apply(report)
	c.Publish(report)
	return nil
}

// apply reports the new state of each sensor and commits it as the state for the next cycle.
func (c *Controller) apply(report Report) {
	states := make(map[string]bool, len(report.Sensors))
	for _, result := range report.Sensors {
		states[result.Sensor] = result.Open
		c.Registry.SetState(result.Sensor, result.Open)

		l := c.logger.With(slog.String("sensor", result.Sensor))
		switch {
		case result.Changed():
			c.Notifier.Notify(notifier.Event{Sensor: result.Sensor, Open: result.Open, Reason: result.Reason()})
		case result.Open && !result.Sunny:
			l.Info("not closing", "reason", result.Reason())
		default:
			l.Debug("no change", "result", result)
		}
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	for name, open := range states {
		c.states[name] = open
	}
}

// State returns true if the sensor is currently open.
func (c *Controller) State(name string) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.states[name]
}

// States returns the current state of all sensors.
func (c *Controller) States() map[string]bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	states := make(map[string]bool, len(c.states))
	for name, open := range c.states {
		states[name] = open
	}
	return states
}

func (c *Controller) logError(err error) {
	var (
		networkError    *weerlive.NetworkError
		statusError     *weerlive.HTTPStatusError
		parseError      *weerlive.ParseError
		evaluationError *EvaluationError
	)
	switch {
	case errors.Is(err, ErrCycleInProgress):
		c.logger.Warn("previous cycle still in progress. skipping")
	case errors.As(err, &networkError), errors.As(err, &statusError):
		c.logger.Error("failed to get weather", "err", err)
	case errors.As(err, &parseError):
		c.logger.Error("invalid weather received", "err", err)
	case errors.As(err, &evaluationError):
		c.logger.Error("failed to evaluate sensors", "err", err)
	default:
		c.logger.Error("cycle failed", "err", err)
	}
}
