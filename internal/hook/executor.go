package hook

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/lucamaraschi/fastify/internal/fault"
	"github.com/lucamaraschi/fastify/internal/serializer"
)

// Executor runs a hook chain against pending completions.
type Executor struct {
	chain  Chain
	logger *slog.Logger
}

// NewExecutor creates an executor over the given chain.
func NewExecutor(chain Chain, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{chain: chain, logger: logger}
}

// HasHooks reports whether any hooks are registered.
func (e *Executor) HasHooks() bool {
	return len(e.chain) > 0
}

// Run executes the chain in registration order against s. If a hook fails,
// remaining hooks are skipped, the pending status is forced to an error
// status, the body is replaced with the canonical error body merged with
// ext, and the returned error wraps the hook's. The caller proceeds to the
// terminal write either way.
func (e *Executor) Run(ctx context.Context, s *State, ext map[string]any) error {
	for _, h := range e.chain {
		if err := h.OnSend(ctx, s); err != nil {
			abort := &AbortError{HookName: h.Name(), Err: err}
			e.logger.Error("onSend hook failed",
				slog.String("hook", h.Name()),
				slog.String("error", err.Error()),
			)

			if s.StatusCode < 400 {
				s.StatusCode = 500
			}
			s.Body = serializer.SafeMarshal(fault.Body(s.StatusCode, err.Error(), ext))
			s.Header.Set("Content-Type", "application/json")
			s.Header.Set("Content-Length", strconv.Itoa(len(s.Body)))
			return abort
		}
	}
	return nil
}
