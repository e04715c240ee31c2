package ports

import (
	"context"
	"encoding/json"
	"errors"
)

// Op names a remote evaluation operation.
type Op string

const (
	// OpMapID requests a renderable map for an image expression.
	OpMapID Op = "mapid"
	// OpValue requests the computed value of an expression.
	OpValue Op = "value"
)

// ErrUnknownOp is returned by transports that receive an Op they do not serve.
var ErrUnknownOp = errors.New("unknown operation")

// Valid reports whether op is one of the known operations.
func (op Op) Valid() bool {
	return op == OpMapID || op == OpValue
}

// Request is one call to the evaluation service.
type Request struct {
	Op Op
	// Payload is the serialized expression graph.
	Payload []byte
	// Params are passed next to the expression, e.g. visualization params.
	Params map[string]any
}

// Response is what the evaluation service returns.
type Response struct {
	ID     string          `json:"mapid,omitempty"`
	Token  string          `json:"token,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Transport sends expression graphs to a remote evaluation service.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Send calls f(ctx, req).
func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
