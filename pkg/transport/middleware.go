package transport

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/lattice/pkg/encoder"
	"github.com/aretw0/lattice/pkg/ports"
)

// Middleware allows wrapping a Transport to add behavior.
type Middleware func(ports.Transport) ports.Transport

// Chain applies middlewares so that the first one is the outermost.
func Chain(t ports.Transport, mws ...Middleware) ports.Transport {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			t = mws[i](t)
		}
	}
	return t
}

// RequestKey identifies a request by its operation, payload and params.
// Two requests with the same key are interchangeable.
func RequestKey(req *ports.Request) (string, error) {
	data := append([]byte(nil), req.Payload...)
	if len(req.Params) > 0 {
		// encoding/json sorts map keys, so equal params serialize identically.
		params, err := json.Marshal(req.Params)
		if err != nil {
			return "", fmt.Errorf("failed to marshal params: %w", err)
		}
		data = append(append(data, '\n'), params...)
	}
	return string(req.Op) + ":" + encoder.Fingerprint(data), nil
}
