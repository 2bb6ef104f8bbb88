// Package history persists an audit trail of finished tool dispatches.
//
// The store is write-mostly: the dispatcher appends one record per call and
// operators list records for inspection. Nothing recorded here is ever read
// back into the dispatch path.
package history

import (
	"context"
	"time"
)

// Outcome labels for stored dispatch records, matching the dispatcher's
// terminal states.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Record is one finished tool dispatch. ExitCode is only meaningful for
// engine execution failures and is zero otherwise.
type Record struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Outcome    string    `json:"outcome"`
	ErrorCode  string    `json:"error_code,omitempty"`
	ExitCode   int       `json:"exit_code,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	TraceID    string    `json:"trace_id,omitempty"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists dispatch records.
type Store interface {
	// Append persists one record.
	Append(ctx context.Context, rec Record) error
	// List returns records newest first. A limit of zero or less returns
	// everything.
	List(ctx context.Context, limit int) ([]Record, error)
	// Close releases the underlying storage.
	Close() error
}
