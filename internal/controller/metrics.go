package controller

import (
	"errors"
	"github.com/clambin/sunguard/internal/weerlive"
	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = &Metrics{}

// Metrics counts the evaluation cycles by outcome.
type Metrics struct {
	cycles *prometheus.CounterVec
}

func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycles_total",
			Help:      "total number of evaluation cycles, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observe(err error) {
	if m != nil {
		m.cycles.WithLabelValues(outcome(err)).Inc()
	}
}

func outcome(err error) string {
	var (
		networkError    *weerlive.NetworkError
		statusError     *weerlive.HTTPStatusError
		parseError      *weerlive.ParseError
		evaluationError *EvaluationError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCycleInProgress):
		return "skipped"
	case errors.As(err, &networkError), errors.As(err, &statusError):
		return "fetch_error"
	case errors.As(err, &parseError):
		return "parse_error"
	case errors.As(err, &evaluationError):
		return "evaluation_error"
	default:
		return "error"
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.cycles.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.cycles.Collect(ch)
}
