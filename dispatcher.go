package pqcbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/latticegate/pqcbridge/mcp"
)

// Dispatcher routes tool calls end to end: resolve the descriptor, validate
// arguments, run the handler, classify the outcome. All dependencies are
// injected at construction and never mutated, so one Dispatcher serves
// concurrent calls without locking.
type Dispatcher struct {
	registry *Registry
	handlers map[string]Handler
	observer Observer
}

// NewDispatcher wires a registry to its handlers. Every registered
// descriptor must have a handler; a descriptor without one is a
// configuration error at construction, not a per-call surprise.
func NewDispatcher(registry *Registry, handlers map[string]Handler, observer Observer) (*Dispatcher, error) {
	if registry == nil {
		return nil, newBridgeError(ErrorCodeConfiguration, "descriptor registry is required", nil)
	}
	if observer == nil {
		observer = NoopObserver()
	}
	for _, desc := range registry.List() {
		if handlers[desc.ToolID] == nil {
			return nil, newBridgeError(ErrorCodeConfiguration,
				fmt.Sprintf("descriptor %q has no handler", desc.ToolID), nil)
		}
	}
	return &Dispatcher{registry: registry, handlers: handlers, observer: observer}, nil
}

// Registry exposes the descriptor registry backing this dispatcher.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch runs one tool call and returns its result document. Errors are
// always *BridgeError; the observer sees every call, either way.
func (d *Dispatcher) Dispatch(ctx context.Context, tool string, args map[string]any) (any, error) {
	start := time.Now()
	result, err := d.dispatch(ctx, tool, args)

	observation := DispatchObservation{
		Tool:       tool,
		Outcome:    OutcomeSuccess,
		DurationMS: time.Since(start).Milliseconds(),
		TraceID:    TraceIDFrom(ctx),
		Source:     SourceFrom(ctx),
	}
	if err != nil {
		observation.Outcome = OutcomeError
		observation.ErrorCode = ErrorCode(err)
		if exitCode, ok := errorExitCode(err); ok {
			observation.ExitCode = exitCode
		}
	}
	d.observer.ObserveDispatch(observation)

	return result, err
}

func (d *Dispatcher) dispatch(ctx context.Context, tool string, args map[string]any) (any, error) {
	desc, ok := d.registry.Resolve(tool)
	if !ok {
		return nil, withErrorDetails(
			newBridgeError(ErrorCodeUnknownTool, fmt.Sprintf("unknown tool %q", tool), nil),
			map[string]any{"known_tools": d.knownTools()})
	}

	validated, err := ValidateArguments(desc, args)
	if err != nil {
		return nil, err
	}

	result, err := d.handlers[desc.ToolID](ctx, validated)
	if err != nil {
		var bridgeErr *BridgeError
		if !errors.As(err, &bridgeErr) {
			err = newBridgeError(ErrorCodeInternal, err.Error(), err)
		}
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) knownTools() []string {
	descriptors := d.registry.List()
	ids := make([]string, 0, len(descriptors))
	for _, desc := range descriptors {
		ids = append(ids, desc.ToolID)
	}
	return ids
}

// ListTools implements mcp.ToolProvider.
func (d *Dispatcher) ListTools(ctx context.Context) []mcp.Tool {
	descriptors := d.registry.List()
	tools := make([]mcp.Tool, 0, len(descriptors))
	for _, desc := range descriptors {
		tools = append(tools, mcp.Tool{
			Name:         desc.ToolID,
			Description:  desc.Description,
			InputSchema:  schemaToMap(desc.InputSchema),
			OutputSchema: schemaToMap(desc.OutputSchema),
		})
	}
	return tools
}

// CallTool implements mcp.ToolProvider. Tool failures come back as error
// envelopes carrying the bridge error message; they are never protocol
// errors and never panics.
func (d *Dispatcher) CallTool(ctx context.Context, name string, arguments map[string]any) mcp.ToolsCallResult {
	if TraceIDFrom(ctx) == "" {
		ctx = WithTraceID(ctx, uuid.NewString())
	}

	result, err := d.Dispatch(ctx, name, arguments)
	if err != nil {
		return mcp.ErrorResult(errorMessage(err))
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.ErrorResult("encoding result: " + err.Error())
	}

	call := mcp.TextResult(string(data))
	var structured map[string]any
	if err := json.Unmarshal(data, &structured); err == nil {
		call.StructuredContent = structured
	}
	return call
}

func schemaToMap(schema Schema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

var _ mcp.ToolProvider = (*Dispatcher)(nil)
