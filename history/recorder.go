package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/latticegate/pqcbridge"
)

const appendTimeout = 5 * time.Second

// Recorder bridges dispatch observations into the history store. Appends are
// best-effort: a store failure is logged and never reaches the dispatch path.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a Recorder writing to store. If logger is nil,
// slog.Default() is used.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// ObserveDispatch implements the bridge observer.
func (r *Recorder) ObserveDispatch(observation pqcbridge.DispatchObservation) {
	if r == nil || r.store == nil {
		return
	}

	outcome := OutcomeCompleted
	if observation.Outcome == pqcbridge.OutcomeError {
		outcome = OutcomeFailed
	}

	rec := Record{
		ID:         uuid.NewString(),
		Tool:       observation.Tool,
		Outcome:    outcome,
		ErrorCode:  observation.ErrorCode,
		ExitCode:   observation.ExitCode,
		DurationMS: observation.DurationMS,
		TraceID:    observation.TraceID,
		Source:     observation.Source,
		CreatedAt:  time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	if err := r.store.Append(ctx, rec); err != nil {
		r.logger.Warn("history append failed", "tool", rec.Tool, "trace_id", rec.TraceID, "error", err)
	}
}

var _ pqcbridge.Observer = (*Recorder)(nil)
