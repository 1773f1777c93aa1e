package hook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lucamaraschi/fastify/internal/storage"
	"github.com/lucamaraschi/fastify/internal/storage/memory"
)

func TestRecorder_RecordsCompletion(t *testing.T) {
	store := memory.New()
	rec := NewRecorder(store, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/items/7", nil)
	header := make(http.Header)
	header.Set("X-Request-ID", "req-42")
	s := &State{
		Request:    req,
		Header:     header,
		StatusCode: 200,
		Body:       []byte(`{"id":7}`),
	}

	if err := rec.OnSend(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := store.ListCompletions(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	c := records[0]
	if c.RequestID != "req-42" {
		t.Errorf("RequestID = %q", c.RequestID)
	}
	if c.Method != http.MethodGet || c.Path != "/items/7" {
		t.Errorf("recorded %s %s", c.Method, c.Path)
	}
	if c.StatusCode != 200 {
		t.Errorf("StatusCode = %d", c.StatusCode)
	}
	if c.BodySize != len(`{"id":7}`) {
		t.Errorf("BodySize = %d", c.BodySize)
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		t.Error("missing record identity")
	}
}

// failingStore always errors, to verify recording is fail-open.
type failingStore struct{}

func (failingStore) RecordCompletion(context.Context, *storage.Completion) error {
	return errors.New("disk full")
}

func (failingStore) ListCompletions(context.Context, int) ([]*storage.Completion, error) {
	return nil, errors.New("disk full")
}

func (failingStore) Close() error { return nil }

func TestRecorder_FailOpen(t *testing.T) {
	rec := NewRecorder(failingStore{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	s := &State{Request: req, Header: make(http.Header), StatusCode: 200}

	if err := rec.OnSend(context.Background(), s); err != nil {
		t.Fatalf("recorder must not fail the response: %v", err)
	}
}
