package fetch

import (
	"errors"
	"fmt"
	"time"
)

// Common errors. Every *Error matches the sentinel for its type through
// errors.Is.
//
// Example:
//
//	state := hook.State()
//	switch {
//	case errors.Is(state.Error, fetch.ErrTimeout):
//	    // upstream was slow
//	case errors.Is(state.Error, fetch.ErrClientError):
//	    // 4xx, inspect the response
//	}
var (
	// ErrInvalidConfig is returned when the configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNetwork is returned when the request never produced a response
	ErrNetwork = errors.New("network error")

	// ErrTimeout is returned when a request times out
	ErrTimeout = errors.New("request timeout")

	// ErrClientError is returned for 4xx responses
	ErrClientError = errors.New("client error")

	// ErrServerError is returned for 5xx responses
	ErrServerError = errors.New("server error")

	// ErrDecode is returned when a response body cannot be decoded
	ErrDecode = errors.New("invalid response body")

	// ErrFingerprint is returned when a request cannot be serialized into a cache key
	ErrFingerprint = errors.New("request cannot be fingerprinted")
)

// ErrorType categorizes request failures.
type ErrorType int

const (
	// ErrorTypeUnknown represents an unclassified error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork represents connection, DNS and transport failures
	ErrorTypeNetwork
	// ErrorTypeTimeout represents request timeouts and context deadlines
	ErrorTypeTimeout
	// ErrorTypeClient represents 4xx responses
	ErrorTypeClient
	// ErrorTypeServer represents 5xx and other non-2xx responses
	ErrorTypeServer
	// ErrorTypeDecode represents bodies that do not decode into the hook's data type
	ErrorTypeDecode
	// ErrorTypeFingerprint represents requests the cache adapter cannot key
	ErrorTypeFingerprint
	// ErrorTypeValidation represents invalid input
	ErrorTypeValidation
)

// String returns the string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeClient:
		return "client"
	case ErrorTypeServer:
		return "server"
	case ErrorTypeDecode:
		return "decode"
	case ErrorTypeFingerprint:
		return "fingerprint"
	case ErrorTypeValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the failure recorded in State.Error. For status errors Response
// holds the upstream response so callers can read its body.
type Error struct {
	Type    ErrorType
	Message string
	// Status is the HTTP status code, zero when no response was received
	Status int
	// Response is set for non-2xx responses
	Response *Response
	Context  *ErrorContext

	wrapped error
}

// ErrorContext describes the request that failed.
type ErrorContext struct {
	URL      string
	Method   string
	Duration time.Duration
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Context != nil && e.Context.URL != "" {
		msg = fmt.Sprintf("%s (%s %s)", msg, e.Context.Method, e.Context.URL)
	}
	if e.wrapped != nil {
		msg += ": " + e.wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is implements errors.Is
func (e *Error) Is(target error) bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return target == ErrNetwork
	case ErrorTypeTimeout:
		return target == ErrTimeout
	case ErrorTypeClient:
		return target == ErrClientError
	case ErrorTypeServer:
		return target == ErrServerError
	case ErrorTypeDecode:
		return target == ErrDecode
	case ErrorTypeFingerprint:
		return target == ErrFingerprint
	case ErrorTypeValidation:
		return target == ErrInvalidConfig
	}
	return false
}

func newError(t ErrorType, message string, wrapped error) *Error {
	return &Error{Type: t, Message: message, wrapped: wrapped}
}

// withRequest attaches the request method and URL.
func (e *Error) withRequest(cfg *RequestConfig, d time.Duration) *Error {
	e.Context = &ErrorContext{URL: cfg.URL, Method: cfg.Method, Duration: d}
	return e
}

// statusError classifies a non-2xx response.
func statusError(resp *Response) *Error {
	t := ErrorTypeServer
	if resp.Status >= 400 && resp.Status < 500 {
		t = ErrorTypeClient
	}
	return &Error{
		Type:     t,
		Message:  fmt.Sprintf("request failed with status code %d", resp.Status),
		Status:   resp.Status,
		Response: resp,
	}
}
