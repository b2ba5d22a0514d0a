package health

import (
	"context"
	"encoding/json"
	"github.com/clambin/sunguard/internal/controller"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultMaxAge is the age after which the last evaluation cycle is considered stale.
const DefaultMaxAge = time.Hour

// Controller publishes the outcome of each evaluation cycle and runs a new cycle on request.
type Controller interface {
	Subscribe() <-chan controller.Report
	Unsubscribe(<-chan controller.Report)
	Refresh()
}

// Health reports the state of all sensors after the last evaluation cycle. Until the first cycle succeeds, or when
// the last cycle is older than MaxAge, it reports the service as unavailable and asks the Controller for a new cycle.
type Health struct {
	Controller
	MaxAge  time.Duration
	Now     func() time.Time
	logger  *slog.Logger
	report  controller.Report
	updated bool
	lock    sync.RWMutex
}

// Status is the body returned by Health.
type Status struct {
	Updated   time.Time            `json:"updated"`
	Stale     bool                 `json:"stale"`
	Weather   string               `json:"weather"`
	SunWindow controller.SunWindow `json:"sunWindow"`
	Sensors   []SensorStatus       `json:"sensors"`
}

// SensorStatus is the state of one sensor.
type SensorStatus struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Reason string `json:"reason"`
}

func New(c Controller, logger *slog.Logger) *Health {
	return &Health{
		Controller: c,
		MaxAge:     DefaultMaxAge,
		Now:        time.Now,
		logger:     logger,
	}
}

func (h *Health) Run(ctx context.Context) error {
	h.logger.Debug("started")
	defer h.logger.Debug("stopped")

	ch := h.Controller.Subscribe()
	defer h.Controller.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case report := <-ch:
			h.lock.Lock()
			h.report = report
			h.updated = true
			h.lock.Unlock()
		}
	}
}

func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.lock.RLock()
	updated := h.updated
	status := h.status()
	h.lock.RUnlock()

	if !updated {
		http.Error(w, "no update yet", http.StatusServiceUnavailable)
		h.Controller.Refresh()
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Stale {
		h.logger.Warn("last evaluation is stale", "updated", status.Updated)
		h.Controller.Refresh()
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Health) status() Status {
	status := Status{
		Updated:   h.report.Time,
		Stale:     h.MaxAge > 0 && h.Now().Sub(h.report.Time) > h.MaxAge,
		Weather:   h.report.Weather.Live.Image,
		SunWindow: h.report.SunWindow,
		Sensors:   make([]SensorStatus, 0, len(h.report.Sensors)),
	}
	for _, result := range h.report.Sensors {
		state := "closed"
		if result.Open {
			state = "open"
		}
		status.Sensors = append(status.Sensors, SensorStatus{Name: result.Sensor, State: state, Reason: result.Reason()})
	}
	return status
}
