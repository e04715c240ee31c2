package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/lattice/pkg/ports"
)

const (
	// FakeMapID and FakeToken are returned for OpMapID unless overridden.
	FakeMapID = "fakeMapId"
	FakeToken = "fakeToken"
)

// Transport implements ports.Transport without a network. It records every request
// and answers with canned responses. Safe for concurrent use.
type Transport struct {
	mu        sync.Mutex
	requests  []*ports.Request
	responses map[ports.Op]*ports.Response
	err       error
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithResponse sets the canned response returned for op.
func WithResponse(op ports.Op, resp *ports.Response) TransportOption {
	return func(t *Transport) {
		t.responses[op] = resp
	}
}

// WithError makes every Send fail with err after the request is recorded.
func WithError(err error) TransportOption {
	return func(t *Transport) {
		t.err = err
	}
}

// NewTransport creates a fake transport answering OpMapID with FakeMapID.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		responses: map[ports.Op]*ports.Response{
			ports.OpMapID: {ID: FakeMapID, Token: FakeToken},
			ports.OpValue: {Result: []byte("null")},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send records the request and returns the canned response for its Op.
func (t *Transport) Send(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recorded := &ports.Request{
		Op:      req.Op,
		Payload: slices.Clone(req.Payload),
		Params:  maps.Clone(req.Params),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, recorded)

	if t.err != nil {
		return nil, t.err
	}
	resp, ok := t.responses[req.Op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ports.ErrUnknownOp, req.Op)
	}
	// Copy on return so callers cannot mutate the canned response.
	out := *resp
	out.Result = slices.Clone(resp.Result)
	return &out, nil
}

// Requests returns a copy of the recorded requests in arrival order.
func (t *Transport) Requests() []*ports.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.requests)
}

// Last returns the most recent request, or nil.
func (t *Transport) Last() *ports.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return nil
	}
	return t.requests[len(t.requests)-1]
}

// Reset forgets recorded requests.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = nil
}
