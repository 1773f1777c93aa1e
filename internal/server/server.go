package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lucamaraschi/fastify/internal/reply"
)

// Server wires the reply pipeline into an HTTP listener.
type Server struct {
	Router *chi.Mux
	Port   int

	store  *reply.Store
	logger *slog.Logger
}

// New creates a server with the standard middleware stack.
func New(port int, timeout time.Duration, store *reply.Store, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(timeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "fastify")
	})

	return &Server{
		Router: r,
		Port:   port,
		store:  store,
		logger: logger,
	}
}

// Handle registers a reply-based handler for a method and pattern.
func (s *Server) Handle(method, pattern string, h HandlerFunc) {
	s.Router.Method(method, pattern, wrap(s.store, h))
}

// Get registers a GET handler.
func (s *Server) Get(pattern string, h HandlerFunc) {
	s.Handle(http.MethodGet, pattern, h)
}

// Post registers a POST handler.
func (s *Server) Post(pattern string, h HandlerFunc) {
	s.Handle(http.MethodPost, pattern, h)
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	return http.ListenAndServe(fmt.Sprintf(":%d", s.Port), s.Router)
}
