// Package hook provides the onSend hook chain run against every pending
// response before its terminal write.
//
// Hooks execute sequentially in registration order and may observe or
// mutate the pending status, headers and body. A hook returning an error
// aborts the remaining chain; the executor then replaces the pending body
// with the canonical error body and the response still completes exactly
// once. Streaming and raw-passthrough responses bypass the chain, since
// their bodies are not a single byte string to transform.
package hook

import (
	"context"
	"fmt"
	"net/http"
)

// State is the pending completion handed to each hook: the request that
// produced it, the live response header map, and the mutable status code
// and body selected for the wire.
type State struct {
	Request    *http.Request
	Header     http.Header
	StatusCode int
	Body       []byte
}

// Hook observes or mutates a pending response before the terminal write.
type Hook interface {
	// Name returns the hook identifier, used in logs and abort errors.
	Name() string

	// OnSend runs against the pending completion. Returning an error
	// aborts the remaining chain.
	OnSend(ctx context.Context, s *State) error
}

// Chain is an ordered list of hooks, registered once at configuration time
// and read-only afterwards.
type Chain []Hook

// Func adapts a plain function into a named Hook.
type Func struct {
	name string
	fn   func(ctx context.Context, s *State) error
}

var _ Hook = (*Func)(nil)

// NewFunc creates a hook from a function.
func NewFunc(name string, fn func(ctx context.Context, s *State) error) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the hook identifier.
func (f *Func) Name() string { return f.name }

// OnSend invokes the wrapped function.
func (f *Func) OnSend(ctx context.Context, s *State) error {
	return f.fn(ctx, s)
}

// AbortError is returned when a hook aborts the chain.
type AbortError struct {
	HookName string
	Err      error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("hook %s aborted send: %v", e.HookName, e.Err)
}

// Unwrap returns the hook's original error.
func (e *AbortError) Unwrap() error {
	return e.Err
}

// IsAbort reports whether err is a hook chain abort.
func IsAbort(err error) bool {
	_, ok := err.(*AbortError)
	return ok
}
