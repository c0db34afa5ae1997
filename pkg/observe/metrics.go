package observe

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request counts, failures and latency.
type Metrics struct {
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. Collectors that are already
// registered under the same name are reused.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Responses received, by method and status class.",
		},
		[]string{"method", "code"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "transport_errors_total",
			Help:      "Requests that failed before a response was received.",
		},
		[]string{"method"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Time until response headers or transport failure.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if failures, err = register(reg, failures); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}

	return &Metrics{requests: requests, failures: failures, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns hooks feeding m
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnResponse: func(_ context.Context, e ResponseEvent) {
			m.requests.WithLabelValues(e.Method, statusClass(e.StatusCode)).Inc()
			m.duration.WithLabelValues(e.Method).Observe(e.Duration.Seconds())
		},
		OnError: func(_ context.Context, e ErrorEvent) {
			m.failures.WithLabelValues(e.Method).Inc()
			m.duration.WithLabelValues(e.Method).Observe(e.Duration.Seconds())
		},
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", code/100)
}
