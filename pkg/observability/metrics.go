package observability

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "lattice"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the collectors used by the transport chain.
type Metrics struct {
	Requests     *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	PayloadBytes *prometheus.HistogramVec
	CacheLookups *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A collector already registered by an earlier call is reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "transport_requests_total",
				Help:      "Total number of requests sent to the evaluation service",
			},
			[]string{"op", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "transport_duration_seconds",
				Help:      "Duration of requests sent to the evaluation service",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		PayloadBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "transport_payload_bytes",
				Help:      "Size of serialized expression graphs",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"op"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by result (hit, miss, shared)",
			},
			[]string{"result"},
		),
	}

	var err error
	if m.Requests, err = register(reg, m.Requests); err != nil {
		return nil, err
	}
	if m.Duration, err = register(reg, m.Duration); err != nil {
		return nil, err
	}
	if m.PayloadBytes, err = register(reg, m.PayloadBytes); err != nil {
		return nil, err
	}
	if m.CacheLookups, err = register(reg, m.CacheLookups); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
