package pdp

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes used as metric labels.
const (
	outcomeOK                = "ok"
	outcomeRetryExhausted    = "retry_exhausted"
	outcomeMalformedEndpoint = "malformed_endpoint"
	outcomeCanceled          = "canceled"
	outcomeError             = "error"

	attemptSuccess        = "success"
	attemptTransportError = "transport_error"
	attemptError          = "error"
)

// Metrics holds Prometheus metrics for PDP requests. A nil *Metrics records
// nothing.
type Metrics struct {
	requestTotal    *prometheus.CounterVec
	attemptTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors; register them with Register.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pdp_client"
	}

	return &Metrics{
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decision",
				Name:      "request_total",
				Help:      "Total number of decision requests by outcome",
			},
			[]string{"outcome"},
		),
		attemptTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decision",
				Name:      "attempt_total",
				Help:      "Total number of HTTP attempts made against the PDP",
			},
			[]string{"result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "decision",
				Name:      "request_duration_seconds",
				Help:      "Decision request duration in seconds, retries included",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
	}
}

// Register adds the collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.requestTotal, m.attemptTotal, m.requestDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) recordAttempt(err error) {
	if m == nil {
		return
	}
	result := attemptSuccess
	if IsTransportError(err) {
		result = attemptTransportError
	} else if err != nil {
		result = attemptError
	}
	m.attemptTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) recordRequest(err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := requestOutcome(err)
	m.requestTotal.WithLabelValues(outcome).Inc()
	m.requestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func requestOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrRetryExhausted):
		return outcomeRetryExhausted
	case errors.Is(err, ErrMalformedEndpoint):
		return outcomeMalformedEndpoint
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	}
	return outcomeError
}
