package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lucamaraschi/fastify/internal/storage"
)

func record(id string, status int) *storage.Completion {
	return &storage.Completion{
		ID:         id,
		Method:     "GET",
		Path:       "/things",
		StatusCode: status,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestStore_RecordAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.RecordCompletion(ctx, record(fmt.Sprintf("c-%d", i), 200)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	records, err := s.ListCompletions(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// Newest first
	if records[0].ID != "c-2" || records[2].ID != "c-0" {
		t.Errorf("unexpected order: %s ... %s", records[0].ID, records[2].ID)
	}
}

func TestStore_ListLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = s.RecordCompletion(ctx, record(fmt.Sprintf("c-%d", i), 200))
	}

	records, err := s.ListCompletions(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "c-4" {
		t.Errorf("first = %s, want c-4", records[0].ID)
	}
}

func TestStore_CapacityEviction(t *testing.T) {
	s := NewWithCapacity(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = s.RecordCompletion(ctx, record(fmt.Sprintf("c-%d", i), 200))
	}

	records, err := s.ListCompletions(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// Oldest two were evicted
	if records[len(records)-1].ID != "c-2" {
		t.Errorf("oldest retained = %s, want c-2", records[len(records)-1].ID)
	}
}

func TestStore_Close(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
