package lattice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/aretw0/lattice/pkg/encoder"
	"github.com/aretw0/lattice/pkg/ports"
)

// ErrNoTransport is returned by New when no transport is configured.
var ErrNoTransport = errors.New("lattice: no transport configured")

// Client serializes graphs and requests results from the evaluation service.
// It is the only place where a graph leaves the process. Safe for concurrent use.
type Client struct {
	transport ports.Transport
	encoder   *encoder.Encoder
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithTransport sets the transport used to reach the evaluation service.
func WithTransport(t ports.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithLogger sets a custom structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithEncoder replaces the default encoder, e.g. with one in strict variable mode.
func WithEncoder(e *encoder.Encoder) Option {
	return func(c *Client) {
		c.encoder = e
	}
}

// New creates a Client. A transport is required.
func New(opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		return nil, ErrNoTransport
	}
	if c.encoder == nil {
		c.encoder = encoder.New()
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c, nil
}

// MapID identifies a rendered map on the evaluation service.
type MapID struct {
	MapID string
	Token string
	// Image is the node that was sent: the drawn collection for features and
	// collections, the given node otherwise.
	Image *domain.Node
}

// Serialize returns the canonical wire form of v.
func (c *Client) Serialize(v any) ([]byte, error) {
	return c.encoder.Serialize(v)
}

// GetMapID requests a map for node. Features and collections are drawn first, with
// params folded into the draw call; any other node is sent as-is with params alongside.
// Exactly one request is made and the returned id is passed through unchanged.
func (c *Client) GetMapID(ctx context.Context, node *domain.Node, params map[string]any) (*MapID, error) {
	if node == nil {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, nil, "nil node")
	}

	image, rest := dsl.RenderImage(node, params)
	payload, err := c.encoder.Serialize(image)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	c.logger.Debug("requesting map", "image", image.String(), "bytes", len(payload))
	resp, err := c.transport.Send(ctx, &ports.Request{Op: ports.OpMapID, Payload: payload, Params: rest})
	if err != nil {
		return nil, fmt.Errorf("getmapid: %w", err)
	}
	return &MapID{MapID: resp.ID, Token: resp.Token, Image: image}, nil
}

// GetInfo requests the computed value of v.
func (c *Client) GetInfo(ctx context.Context, v any) (json.RawMessage, error) {
	payload, err := c.encoder.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}

	resp, err := c.transport.Send(ctx, &ports.Request{Op: ports.OpValue, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("getinfo: %w", err)
	}
	return resp.Result, nil
}
