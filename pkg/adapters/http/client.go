package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 4 << 10

// RemoteError is returned when the service answers with a non-2xx status.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (%d): %s", e.Status, e.Message)
}

// Client implements ports.Transport over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// NewClient creates a transport posting to baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "lattice",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts the request and decodes the response.
func (c *Client) Send(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Op.Valid() {
		return nil, fmt.Errorf("%w: %q", ports.ErrUnknownOp, req.Op)
	}

	body, err := json.Marshal(wireRequest{Expression: req.Payload, Params: req.Params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/"+string(req.Op), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, decodeRemoteError(httpResp)
	}

	var resp ports.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

func decodeRemoteError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))

	var we wireError
	if json.Unmarshal(raw, &we) == nil && we.Error != "" {
		msg = we.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &RemoteError{Status: resp.StatusCode, Message: msg}
}
