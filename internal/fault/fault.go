// Package fault provides the canonical error representation for responses.
//
// A Fault is a structured failure carrying an explicit HTTP status code,
// suggested response headers, and a JSON payload. Handlers return a *Fault
// when they know exactly what the client should see; any other error value
// is normalized into the canonical error body with Body.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Fault is a structured error with an explicit wire representation.
type Fault struct {
	// StatusCode is the HTTP status code to respond with.
	StatusCode int

	// Message is the human-readable error message.
	Message string

	// Headers are suggested response headers, copied onto the response
	// before the body is written.
	Headers map[string]string

	// Payload overrides the response body. When nil, the canonical error
	// body for StatusCode and Message is used.
	Payload any

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	reason := ReasonPhrase(f.StatusCode)
	if f.Message != "" {
		return fmt.Sprintf("%s: %s", reason, f.Message)
	}
	return reason
}

// Unwrap returns the underlying cause.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Body returns the payload to serialize for this fault. When no explicit
// payload was set, it is the canonical error body.
func (f *Fault) Body() any {
	if f.Payload != nil {
		return f.Payload
	}
	return Body(f.StatusCode, f.Message, nil)
}

// New creates a fault with the given status code and message.
func New(statusCode int, message string) *Fault {
	return &Fault{
		StatusCode: statusCode,
		Message:    message,
	}
}

// Wrap creates a fault from an existing error, preserving it as the cause.
func Wrap(statusCode int, err error) *Fault {
	return &Fault{
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// WithHeader adds a suggested response header to the fault.
func (f *Fault) WithHeader(key, value string) *Fault {
	if f.Headers == nil {
		f.Headers = make(map[string]string)
	}
	f.Headers[key] = value
	return f
}

// WithPayload overrides the response body for the fault.
func (f *Fault) WithPayload(payload any) *Fault {
	f.Payload = payload
	return f
}

// As extracts a *Fault from an error chain.
func As(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Convenience constructors for common faults

// BadRequest creates a 400 fault.
func BadRequest(message string) *Fault {
	return New(http.StatusBadRequest, message)
}

// Unauthorized creates a 401 fault.
func Unauthorized(message string) *Fault {
	return New(http.StatusUnauthorized, message)
}

// Forbidden creates a 403 fault.
func Forbidden(message string) *Fault {
	return New(http.StatusForbidden, message)
}

// NotFound creates a 404 fault.
func NotFound(message string) *Fault {
	return New(http.StatusNotFound, message)
}

// TooManyRequests creates a 429 fault.
func TooManyRequests(message string) *Fault {
	return New(http.StatusTooManyRequests, message)
}

// Internal creates a 500 fault.
func Internal(message string) *Fault {
	return New(http.StatusInternalServerError, message)
}

// ServiceUnavailable creates a 503 fault.
func ServiceUnavailable(message string) *Fault {
	return New(http.StatusServiceUnavailable, message)
}

// ReasonPhrase returns the standard reason phrase for a status code.
// Unknown codes map to "Unknown Error" so error bodies are always complete.
func ReasonPhrase(statusCode int) string {
	if phrase := http.StatusText(statusCode); phrase != "" {
		return phrase
	}
	return "Unknown Error"
}

// Body builds the canonical error body for a status code and message,
// merged with an optional extension (e.g. a request id). Extension keys
// never shadow the three canonical fields.
func Body(statusCode int, message string, ext map[string]any) map[string]any {
	body := map[string]any{
		"error":      ReasonPhrase(statusCode),
		"message":    message,
		"statusCode": statusCode,
	}
	for k, v := range ext {
		if _, reserved := body[k]; reserved {
			continue
		}
		body[k] = v
	}
	return body
}
