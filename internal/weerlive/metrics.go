package weerlive

import (
	"github.com/clambin/go-common/http/metrics"
	"github.com/clambin/go-common/http/roundtripper"
	"github.com/prometheus/client_golang/prometheus"
	"net/http"
	"strconv"
)

// NewMetrics returns the request metrics for calls to the WeerLive API. The query string carries the API key
// and is never used as a label.
func NewMetrics(namespace, subsystem string, labels prometheus.Labels) metrics.RequestMetrics {
	return metrics.NewRequestMetrics(metrics.Options{
		Namespace:   namespace,
		Subsystem:   subsystem,
		ConstLabels: labels,
		LabelValues: func(request *http.Request, code int) (string, string, string) {
			path := request.URL.Path
			if path == "" {
				path = "/"
			}
			return request.Method, path, strconv.Itoa(code)
		},
	})
}

// Instrument returns a function that records all requests in m. Use with WithRoundTripper.
func Instrument(m metrics.RequestMetrics) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundtripper.New(
			roundtripper.WithRequestMetrics(m),
			roundtripper.WithRoundTripper(next),
		)
	}
}
