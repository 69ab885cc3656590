package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const userAgent = "birb-fetch/1.0.0"

// Client issues requests for a Runtime. Implementations should hand the
// request to cfg.Adapter when it is set; HTTPClient does.
type Client interface {
	Do(ctx context.Context, cfg *RequestConfig) (*Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, cfg *RequestConfig) (*Response, error)

// Do calls f(ctx, cfg)
func (f ClientFunc) Do(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	return f(ctx, cfg)
}

// HTTPClient is the default Client, built on net/http. Non-2xx responses are
// returned as *Error together with the response.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// NewHTTPClient creates an HTTP client from the runtime configuration
func NewHTTPClient(config *Config) *HTTPClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		baseURL: config.BaseURL,
		headers: config.Headers,
	}
}

// Do runs the request, or its Adapter when one is attached.
func (c *HTTPClient) Do(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	if cfg.Adapter != nil {
		next := cfg.Clone()
		adapter := next.Adapter
		next.Adapter = nil
		return adapter(ctx, &next)
	}
	return c.roundTrip(ctx, cfg)
}

func (c *HTTPClient) roundTrip(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	start := time.Now()
	method := normalizeMethod(cfg.Method)

	fullURL, err := c.resolve(cfg)
	if err != nil {
		return nil, newError(ErrorTypeValidation, "invalid request URL", err).withRequest(cfg, 0)
	}

	body, contentType, err := encodeBody(cfg.Body)
	if err != nil {
		return nil, newError(ErrorTypeValidation, "failed to encode request body", err).withRequest(cfg, 0)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, newError(ErrorTypeValidation, "failed to create request", err).withRequest(cfg, 0)
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, newError(ErrorTypeTimeout, "request timed out", err).withRequest(cfg, time.Since(start))
		}
		return nil, newError(ErrorTypeNetwork, "request failed", err).withRequest(cfg, time.Since(start))
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, newError(ErrorTypeNetwork, "reading response", err).withRequest(cfg, time.Since(start))
	}

	settled := cfg.Clone()
	resp := &Response{
		Status:     httpResp.StatusCode,
		StatusText: strings.TrimPrefix(httpResp.Status, strconv.Itoa(httpResp.StatusCode)+" "),
		Header:     httpResp.Header,
		Data:       data,
		Config:     &settled,
		Request:    req,
	}

	if resp.Status < 200 || resp.Status >= 300 {
		return nil, statusError(resp).withRequest(cfg, time.Since(start))
	}
	return resp, nil
}

func (c *HTTPClient) resolve(cfg *RequestConfig) (string, error) {
	target, err := url.Parse(cfg.URL)
	if err != nil {
		return "", err
	}

	base := cfg.BaseURL
	if base == "" {
		base = c.baseURL
	}
	if !target.IsAbs() && base != "" {
		target, err = url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(cfg.URL, "/"))
		if err != nil {
			return "", err
		}
	}

	if len(cfg.Params) > 0 {
		q := target.Query()
		for k, v := range cfg.Params {
			q.Set(k, v)
		}
		target.RawQuery = q.Encode()
	}
	return target.String(), nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	case string:
		return strings.NewReader(b), "text/plain; charset=utf-8", nil
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// CloseIdleConnections releases pooled connections.
func (c *HTTPClient) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}
