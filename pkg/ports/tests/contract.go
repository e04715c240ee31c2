package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/ports"
)

// TransportContractTest is a reusable test suite that verifies if an adapter complies with ports.Transport.
// The transport must answer OpMapID requests with a non-empty ID and reject unknown operations.
func TransportContractTest(t *testing.T, transport ports.Transport) {
	t.Helper()
	ctx := context.Background()
	payload := []byte(`{"function":"Collection","arguments":{"features":{"constantValue":[]}}}`)

	// 1. MapID (Success)
	t.Run("MapID_Success", func(t *testing.T) {
		resp, err := transport.Send(ctx, &ports.Request{Op: ports.OpMapID, Payload: payload})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp == nil || resp.ID == "" {
			t.Errorf("expected a map id, got %+v", resp)
		}
	})

	// 2. Unknown Op
	t.Run("UnknownOp", func(t *testing.T) {
		_, err := transport.Send(ctx, &ports.Request{Op: "explode", Payload: payload})
		if err == nil {
			t.Error("expected error for unknown operation, got nil")
		}
	})

	// 3. Canceled context
	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := transport.Send(canceled, &ports.Request{Op: ports.OpMapID, Payload: payload})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
