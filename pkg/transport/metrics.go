package transport

import (
	"context"
	"time"

	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
)

type metricsMiddleware struct {
	next    ports.Transport
	metrics *observability.Metrics
}

// NewMetricsMiddleware records request counts, durations and payload sizes.
func NewMetricsMiddleware(m *observability.Metrics) Middleware {
	return func(next ports.Transport) ports.Transport {
		return &metricsMiddleware{next: next, metrics: m}
	}
}

func (m *metricsMiddleware) Send(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	op := string(req.Op)
	m.metrics.PayloadBytes.WithLabelValues(op).Observe(float64(len(req.Payload)))

	start := time.Now()
	resp, err := m.next.Send(ctx, req)
	m.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	outcome := observability.OutcomeOK
	if err != nil {
		outcome = observability.OutcomeError
	}
	m.metrics.Requests.WithLabelValues(op, outcome).Inc()
	return resp, err
}
