package reply

import (
	"context"
	"log/slog"

	"github.com/lucamaraschi/fastify/internal/hook"
	"github.com/lucamaraschi/fastify/internal/scheduler"
	"github.com/lucamaraschi/fastify/internal/serializer"
)

// Store is the server-wide configuration shared by every Reply: the onSend
// hook chain, the default serializer, the completion scheduler and the
// request logger. It is built once at startup and read-only afterwards, so
// in-flight requests need no locking.
type Store struct {
	serializer    serializer.Func
	executor      *hook.Executor
	sched         scheduler.Scheduler
	logger        *slog.Logger
	errorExtender func(ctx context.Context) map[string]any
}

// StoreConfig configures a Store. Zero values get working defaults: JSON
// serialization, no hooks, inline scheduling and the default slog logger.
type StoreConfig struct {
	// Serializer encodes JSON-eligible payloads. Defaults to plain JSON.
	Serializer serializer.Func

	// Hooks run in order against every pending response.
	Hooks hook.Chain

	// Scheduler defers terminal writes. Defaults to inline execution;
	// production wiring passes a scheduler.Deferred for batching.
	Scheduler scheduler.Scheduler

	// Logger receives every fault, error, hook and stream failure.
	Logger *slog.Logger

	// ErrorExtender supplies extra fields merged into canonical error
	// bodies, e.g. the request id.
	ErrorExtender func(ctx context.Context) map[string]any
}

// NewStore creates a store from configuration.
func NewStore(cfg StoreConfig) *Store {
	ser := cfg.Serializer
	if ser == nil {
		ser = serializer.JSON()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sched := cfg.Scheduler
	if sched == nil {
		sched = scheduler.Inline{}
	}

	return &Store{
		serializer:    ser,
		executor:      hook.NewExecutor(cfg.Hooks, logger),
		sched:         sched,
		logger:        logger,
		errorExtender: cfg.ErrorExtender,
	}
}
