package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lucamaraschi/fastify/internal/storage"
)

// requestIDHeader carries the request id assigned by the server middleware.
const requestIDHeader = "X-Request-ID"

// Recorder persists a completion record for every finalized response.
// Recording is fail-open: a storage error is logged but never turns a
// successful response into an error response.
type Recorder struct {
	store  storage.Store
	logger *slog.Logger
}

var _ Hook = (*Recorder)(nil)

// NewRecorder creates a recorder hook backed by store.
func NewRecorder(store storage.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Name returns the hook identifier.
func (r *Recorder) Name() string {
	return "recorder"
}

// OnSend records the pending completion.
func (r *Recorder) OnSend(ctx context.Context, s *State) error {
	rec := &storage.Completion{
		ID:         uuid.New().String(),
		RequestID:  s.Header.Get(requestIDHeader),
		Method:     s.Request.Method,
		Path:       s.Request.URL.Path,
		StatusCode: s.StatusCode,
		BodySize:   len(s.Body),
		CreatedAt:  time.Now().UTC(),
	}

	if err := r.store.RecordCompletion(ctx, rec); err != nil {
		r.logger.Error("failed to record completion",
			slog.String("request_id", rec.RequestID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
