package fetch

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Response is a settled HTTP response with its body fully read.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Data       []byte

	// Config and Request point back at what produced the response. They are
	// dropped when the response is cached.
	Config  *RequestConfig
	Request *http.Request
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Data, v)
}

// CachedResponse is the serializable subset of a Response stored by the
// cache adapter.
type CachedResponse struct {
	Status     int         `json:"status"`
	StatusText string      `json:"statusText"`
	Header     http.Header `json:"headers,omitempty"`
	Data       []byte      `json:"data"`
}

// NewCachedResponse copies the serializable fields of r.
func NewCachedResponse(r *Response) CachedResponse {
	return CachedResponse{
		Status:     r.Status,
		StatusText: r.StatusText,
		Header:     r.Header.Clone(),
		Data:       bytes.Clone(r.Data),
	}
}

// Response rebuilds a Response for a cache hit on cfg.
func (c CachedResponse) Response(cfg *RequestConfig) *Response {
	return &Response{
		Status:     c.Status,
		StatusText: c.StatusText,
		Header:     c.Header.Clone(),
		Data:       bytes.Clone(c.Data),
		Config:     cfg,
	}
}
