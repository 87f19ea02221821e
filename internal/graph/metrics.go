package graph

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names, exported so callers can look them up in a Gatherer.
const (
	MetricCalls    = "gdrive_graph_calls_total"
	MetricDuration = "gdrive_graph_call_duration_seconds"
)

// Outcome label values.
const (
	OutcomeOK               = "ok"
	OutcomeNotFound         = "not_found"
	OutcomePermissionDenied = "permission_denied"
	OutcomeAuth             = "auth"
	OutcomeTransport        = "transport"
)

// Metrics holds the Prometheus collectors for Drive calls.
// A nil *Metrics records nothing.
type Metrics struct {
	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCalls,
				Help: "Total number of Drive API calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricDuration,
				Help:    "Duration of Drive API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) observe(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	m.Calls.WithLabelValues(op, Outcome(err)).Inc()
	m.Duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Outcome maps a classified error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrPermissionDenied):
		return OutcomePermissionDenied
	case errors.Is(err, ErrAuth):
		return OutcomeAuth
	default:
		return OutcomeTransport
	}
}
