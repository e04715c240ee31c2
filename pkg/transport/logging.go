package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
	"github.com/google/uuid"
)

type loggingMiddleware struct {
	next   ports.Transport
	logger *slog.Logger
}

// NewLoggingMiddleware logs every request and its outcome.
// Payloads are never logged, only their size.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.Transport) ports.Transport {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) Send(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	log := m.logger.With("request_id", uuid.NewString(), "op", string(req.Op))
	log.Debug("transport request", "bytes", len(req.Payload), "params", len(req.Params))

	start := time.Now()
	resp, err := m.next.Send(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error("transport failed", "duration", elapsed, "error", err)
		return nil, err
	}
	log.Info("transport response", "duration", elapsed, "mapid", resp.ID)
	return resp, nil
}
