// Package storage defines persistence for completed-response records.
package storage

import (
	"context"
	"time"
)

// Completion is one finalized response, recorded after the terminal write.
type Completion struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	BodySize   int       `json:"body_size"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists completion records.
type Store interface {
	// RecordCompletion saves a single completion record.
	RecordCompletion(ctx context.Context, c *Completion) error

	// ListCompletions returns the most recent records, newest first.
	ListCompletions(ctx context.Context, limit int) ([]*Completion, error)

	// Close releases underlying resources.
	Close() error
}
