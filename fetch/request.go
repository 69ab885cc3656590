package fetch

import (
	"context"
	"maps"
	"net/http"
	"strings"
	"time"
)

// Adapter is a per-request transport hook. A client that finds an Adapter on
// the config hands the request to it instead of its own transport; the cache
// adapter uses this to serve hits without touching the network.
type Adapter func(ctx context.Context, cfg *RequestConfig) (*Response, error)

// RequestConfig describes one outbound request. It is treated as a value:
// hooks and executors copy it before changing anything.
type RequestConfig struct {
	Method  string            `json:"method,omitempty"`
	BaseURL string            `json:"baseURL,omitempty"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	// Body is sent as-is for []byte and string values and JSON-encoded otherwise.
	Body    any           `json:"data,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
	// Options is a free-form bag for custom clients. It takes part in the
	// fingerprint, so values must be JSON-serializable.
	Options map[string]any `json:"options,omitempty"`

	// Adapter is not part of the request identity and is never serialized.
	Adapter Adapter `json:"-"`
}

// Request is accepted wherever a hook needs a request: either a bare URL or
// a full RequestConfig.
type Request interface {
	requestConfig() RequestConfig
}

// URL is a bare request URL, equivalent to a GET RequestConfig.
type URL string

func (u URL) requestConfig() RequestConfig {
	return RequestConfig{URL: string(u)}
}

func (c RequestConfig) requestConfig() RequestConfig {
	return c.Clone()
}

// Normalize turns a Request into a standalone RequestConfig with an
// upper-case method, defaulting to GET.
func Normalize(req Request) RequestConfig {
	cfg := req.requestConfig()
	cfg.Method = normalizeMethod(cfg.Method)
	return cfg
}

func normalizeMethod(m string) string {
	if m == "" {
		return http.MethodGet
	}
	return strings.ToUpper(m)
}

// Clone returns a copy whose maps can be modified independently. Body and
// Options values are shared.
func (c RequestConfig) Clone() RequestConfig {
	c.Headers = maps.Clone(c.Headers)
	c.Params = maps.Clone(c.Params)
	c.Options = maps.Clone(c.Options)
	return c
}

// Merge returns c with every set field of override applied on top. Maps are
// replaced, not merged, so an override's Headers drop the base headers.
func (c RequestConfig) Merge(override RequestConfig) RequestConfig {
	out := c.Clone()
	o := override.Clone()

	if o.Method != "" {
		out.Method = normalizeMethod(o.Method)
	}
	if o.BaseURL != "" {
		out.BaseURL = o.BaseURL
	}
	if o.URL != "" {
		out.URL = o.URL
	}
	if o.Headers != nil {
		out.Headers = o.Headers
	}
	if o.Params != nil {
		out.Params = o.Params
	}
	if o.Body != nil {
		out.Body = o.Body
	}
	if o.Timeout != 0 {
		out.Timeout = o.Timeout
	}
	if o.Options != nil {
		out.Options = o.Options
	}
	if o.Adapter != nil {
		out.Adapter = o.Adapter
	}
	return out
}
