package pqcbridge

import "context"

// Dispatch outcome labels recorded on observations.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Dispatch sources identifying what initiated a tool call.
const (
	SourceDirect   = "direct"
	SourceMCP      = "mcp"
	SourceSchedule = "schedule"
	SourceCLI      = "cli"
)

// DispatchObservation captures one tool dispatch outcome. ExitCode is only
// meaningful for engine execution failures; it is zero otherwise.
type DispatchObservation struct {
	Tool       string
	Outcome    string
	ErrorCode  string
	ExitCode   int
	DurationMS int64
	TraceID    string
	Source     string
}

// Observer receives dispatch observability events. Implementations must be
// safe for concurrent use; dispatches may overlap.
type Observer interface {
	ObserveDispatch(observation DispatchObservation)
}

type noopObserver struct{}

func (noopObserver) ObserveDispatch(DispatchObservation) {}

// NoopObserver returns an Observer that discards all observations.
func NoopObserver() Observer { return noopObserver{} }

// MultiObserver fans each observation out to every non-nil member in order.
type MultiObserver []Observer

// ObserveDispatch implements Observer.
func (m MultiObserver) ObserveDispatch(observation DispatchObservation) {
	for _, observer := range m {
		if observer != nil {
			observer.ObserveDispatch(observation)
		}
	}
}

type contextKey int

const (
	contextKeyTraceID contextKey = iota
	contextKeySource
)

// WithTraceID attaches a per-call trace identifier to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}

// TraceIDFrom returns the trace identifier attached to ctx, if any.
func TraceIDFrom(ctx context.Context) string {
	traceID, _ := ctx.Value(contextKeyTraceID).(string)
	return traceID
}

// WithSource records what initiated the call carried by ctx.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, contextKeySource, source)
}

// SourceFrom returns the dispatch source attached to ctx, defaulting to
// SourceDirect when none was recorded.
func SourceFrom(ctx context.Context) string {
	if source, ok := ctx.Value(contextKeySource).(string); ok && source != "" {
		return source
	}
	return SourceDirect
}
