package http

import "encoding/json"

// wireRequest is the body posted to /v1/{op}.
type wireRequest struct {
	Expression json.RawMessage `json:"expression"`
	Params     map[string]any  `json:"params,omitempty"`
}

// wireError is the body of non-2xx responses.
type wireError struct {
	Error string `json:"error"`
}
