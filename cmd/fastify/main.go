package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/lucamaraschi/fastify/internal/config"
	"github.com/lucamaraschi/fastify/internal/fault"
	"github.com/lucamaraschi/fastify/internal/hook"
	"github.com/lucamaraschi/fastify/internal/reply"
	"github.com/lucamaraschi/fastify/internal/scheduler"
	"github.com/lucamaraschi/fastify/internal/server"
	"github.com/lucamaraschi/fastify/internal/storage"
	"github.com/lucamaraschi/fastify/internal/storage/memory"
	"github.com/lucamaraschi/fastify/internal/storage/sqlite"
	"github.com/lucamaraschi/fastify/internal/telemetry"
)

func main() {
	// Load .env if present; real env vars win
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("FASTIFY_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("fastify", logger)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer shutdownTracer(context.Background())

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	sched := scheduler.NewDeferred(cfg.Scheduler.Buffer)
	defer sched.Close()

	timeout, err := cfg.Server.ParseRequestTimeout()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	replyStore := reply.NewStore(reply.StoreConfig{
		Hooks:     buildHooks(cfg, store, logger),
		Scheduler: sched,
		Logger:    logger,
		ErrorExtender: func(ctx context.Context) map[string]any {
			if id := server.GetRequestID(ctx); id != "" {
				return map[string]any{"requestId": id}
			}
			return nil
		},
	})

	srv := server.New(cfg.Server.Port, timeout, replyStore, logger)
	registerRoutes(srv, store)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func openStorage(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return sqlite.New(cfg.Storage.DSN)
	default:
		return memory.New(), nil
	}
}

func buildHooks(cfg *config.Config, store storage.Store, logger *slog.Logger) hook.Chain {
	chain := hook.Chain{hook.NewRecorder(store, logger)}

	for _, wh := range cfg.Hooks.Webhooks {
		timeout := 5 * time.Second
		if wh.Timeout != "" {
			if d, err := time.ParseDuration(wh.Timeout); err == nil {
				timeout = d
			}
		}
		chain = append(chain, hook.NewWebhook(hook.WebhookConfig{
			Name:     wh.Name,
			URL:      wh.URL,
			Timeout:  timeout,
			Retries:  wh.Retries,
			FailOpen: wh.FailOpen,
			Headers:  wh.Headers,
		}))
	}
	return chain
}

func registerRoutes(srv *server.Server, store storage.Store) {
	srv.Get("/healthz", func(rep *reply.Reply, r *http.Request) any {
		return map[string]string{"status": "ok"}
	})

	srv.Get("/_admin/completions", func(rep *reply.Reply, r *http.Request) any {
		return reply.Go(func() (any, error) {
			records, err := store.ListCompletions(r.Context(), 100)
			if err != nil {
				return nil, fault.Wrap(http.StatusInternalServerError, err)
			}
			return records, nil
		})
	})
}
