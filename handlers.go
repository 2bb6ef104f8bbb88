package pqcbridge

import (
	"context"
	"errors"

	"github.com/latticegate/pqcbridge/engine"
)

// Handler executes one tool call. Arguments arrive validated against the
// tool's input schema with defaults applied; the returned value must be
// JSON-serializable.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Toolset bundles the four standard tool handlers over one engine runner.
type Toolset struct {
	runner  *engine.Runner
	scratch *engine.Scratch
}

// NewToolset builds the standard toolset.
func NewToolset(runner *engine.Runner, scratch *engine.Scratch) *Toolset {
	return &Toolset{runner: runner, scratch: scratch}
}

// Handlers returns the tool handlers keyed by tool ID.
func (t *Toolset) Handlers() map[string]Handler {
	return map[string]Handler{
		ToolScan:      t.Scan,
		ToolAnalyze:   t.Analyze,
		ToolRemediate: t.Remediate,
		ToolValidate:  t.Validate,
	}
}

// stageFailure wraps an engine failure with the failing stage prefix and
// classifies the cause into a bridge error code. Engine error-stream text is
// preserved verbatim in the message and details.
func stageFailure(stage string, err error) error {
	var execErr *engine.ExecError
	var artifactErr *engine.ArtifactError

	code := ErrorCodeInternal
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = ErrorCodeEngineTimeout
	case errors.Is(err, context.Canceled):
		code = ErrorCodeCanceled
	case errors.As(err, &artifactErr):
		code = ErrorCodeArtifact
	case errors.As(err, &execErr):
		code = ErrorCodeEngineExecution
	}

	bridgeErr := newBridgeError(code, stage+": "+err.Error(), err)
	if execErr != nil {
		return withErrorDetails(bridgeErr, map[string]any{
			"exit_code": execErr.ExitCode,
			"stderr":    execErr.Stderr,
		})
	}
	return bridgeErr
}
