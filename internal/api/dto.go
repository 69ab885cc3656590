package api

import "encoding/json"

// RenderRequest is the body of POST /v1/render
type RenderRequest struct {
	URLs []string `json:"urls"`
}

// RenderResponse carries the hydrated hook states and the cache dump a
// client needs to hydrate without refetching.
type RenderResponse struct {
	RenderID string          `json:"render_id"`
	States   []RenderedState `json:"states"`
	Cache    json.RawMessage `json:"cache"`
	Stats    RenderStats     `json:"stats"`
}

// RenderedState is one hook's state after hydration
type RenderedState struct {
	URL     string          `json:"url"`
	Loading bool            `json:"loading"`
	Status  int             `json:"status,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// RenderStats summarizes a render
type RenderStats struct {
	Prefetched int   `json:"prefetched"`
	Serialized int   `json:"serialized"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"duration_ms"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}

// Error codes
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeInternalError  = "INTERNAL_ERROR"
	ErrCodeTimeout        = "TIMEOUT"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
)

// NewErrorResponse creates a new error response
func NewErrorResponse(err string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: err,
		Code:  code,
	}
}

// NewErrorResponseWithDetails creates a new error response with details
func NewErrorResponseWithDetails(err string, code string, details string) *ErrorResponse {
	return &ErrorResponse{
		Error:   err,
		Code:    code,
		Details: details,
	}
}
