package pqcbridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/latticegate/pqcbridge/engine"
)

type captureObserver struct {
	mu           sync.Mutex
	observations []DispatchObservation
}

func (c *captureObserver) ObserveDispatch(observation DispatchObservation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observations = append(c.observations, observation)
}

func (c *captureObserver) last(t *testing.T) DispatchObservation {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.observations) == 0 {
		t.Fatal("no observations recorded")
	}
	return c.observations[len(c.observations)-1]
}

func echoDescriptor(id string) ToolDescriptor {
	return ToolDescriptor{
		ToolID:      id,
		Name:        id,
		Description: "test tool " + id,
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Schema{
				"value": {Type: "string"},
			},
			Required: []string{"value"},
		},
	}
}

func newTestDispatcher(t *testing.T, observer Observer, handlers map[string]Handler) *Dispatcher {
	t.Helper()

	descriptors := make([]ToolDescriptor, 0, len(handlers))
	for id := range handlers {
		descriptors = append(descriptors, echoDescriptor(id))
	}
	registry, err := NewRegistry(descriptors)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	dispatcher, err := NewDispatcher(registry, handlers, observer)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return dispatcher
}

func TestNewDispatcher_RejectsDescriptorWithoutHandler(t *testing.T) {
	registry, err := NewRegistry([]ToolDescriptor{echoDescriptor("echo")})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	_, err = NewDispatcher(registry, map[string]Handler{}, nil)
	if err == nil {
		t.Fatal("expected error for descriptor without handler")
	}
	if code := ErrorCode(err); code != ErrorCodeConfiguration {
		t.Fatalf("code = %q, want %q", code, ErrorCodeConfiguration)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	observer := &captureObserver{}
	dispatcher := newTestDispatcher(t, observer, map[string]Handler{
		"echo": func(ctx context.Context, args map[string]any) (any, error) { return args, nil },
	})

	_, err := dispatcher.Dispatch(context.Background(), "nmap", map[string]any{})
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if code := ErrorCode(err); code != ErrorCodeUnknownTool {
		t.Fatalf("code = %q, want %q", code, ErrorCodeUnknownTool)
	}

	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("error type = %T, want *BridgeError", err)
	}
	known, ok := bridgeErr.Details["known_tools"].([]string)
	if !ok || len(known) != 1 || known[0] != "echo" {
		t.Fatalf("known_tools detail = %v", bridgeErr.Details["known_tools"])
	}

	obs := observer.last(t)
	if obs.Outcome != OutcomeError || obs.ErrorCode != ErrorCodeUnknownTool {
		t.Fatalf("observation = %+v", obs)
	}
}

func TestDispatch_InvalidArgumentsSkipHandler(t *testing.T) {
	called := false
	dispatcher := newTestDispatcher(t, nil, map[string]Handler{
		"echo": func(ctx context.Context, args map[string]any) (any, error) {
			called = true
			return args, nil
		},
	})

	_, err := dispatcher.Dispatch(context.Background(), "echo", map[string]any{"bogus": 1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := ErrorCode(err); code != ErrorCodeInvalidArgument {
		t.Fatalf("code = %q, want %q", code, ErrorCodeInvalidArgument)
	}
	if called {
		t.Fatal("handler must not run when validation fails")
	}
}

func TestDispatch_WrapsForeignErrors(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil, map[string]Handler{
		"echo": func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New("engine melted")
		},
	})

	_, err := dispatcher.Dispatch(context.Background(), "echo", map[string]any{"value": "x"})
	if err == nil {
		t.Fatal("expected handler error")
	}
	if code := ErrorCode(err); code != ErrorCodeInternal {
		t.Fatalf("code = %q, want %q", code, ErrorCodeInternal)
	}
}

func TestDispatch_PassesBridgeErrorsThrough(t *testing.T) {
	handlerErr := stageFailure("Scan failed", &engine.ExecError{ExitCode: 3, Stderr: "bad flag"})
	dispatcher := newTestDispatcher(t, nil, map[string]Handler{
		"echo": func(ctx context.Context, args map[string]any) (any, error) {
			return nil, handlerErr
		},
	})

	_, err := dispatcher.Dispatch(context.Background(), "echo", map[string]any{"value": "x"})
	if !errors.Is(err, handlerErr) {
		t.Fatalf("error = %v, want the original bridge error", err)
	}
	if code := ErrorCode(err); code != ErrorCodeEngineExecution {
		t.Fatalf("code = %q, want %q", code, ErrorCodeEngineExecution)
	}
}

func TestDispatch_ObservationCarriesContextAndExitCode(t *testing.T) {
	observer := &captureObserver{}
	dispatcher := newTestDispatcher(t, observer, map[string]Handler{
		"echo": func(ctx context.Context, args map[string]any) (any, error) {
			return nil, stageFailure("Scan failed", &engine.ExecError{ExitCode: 2, Stderr: "config error"})
		},
	})

	ctx := WithSource(WithTraceID(context.Background(), "trace-1"), SourceSchedule)
	_, err := dispatcher.Dispatch(ctx, "echo", map[string]any{"value": "x"})
	if err == nil {
		t.Fatal("expected error")
	}

	obs := observer.last(t)
	if obs.Tool != "echo" {
		t.Errorf("Tool = %q", obs.Tool)
	}
	if obs.TraceID != "trace-1" {
		t.Errorf("TraceID = %q", obs.TraceID)
	}
	if obs.Source != SourceSchedule {
		t.Errorf("Source = %q", obs.Source)
	}
	if obs.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", obs.ExitCode)
	}
	if obs.ErrorCode != ErrorCodeEngineExecution {
		t.Errorf("ErrorCode = %q", obs.ErrorCode)
	}
}

func TestDispatch_SuccessObservation(t *testing.T) {
	observer := &captureObserver{}
	dispatcher := newTestDispatcher(t, observer, map[string]Handler{
		"echo": func(ctx context.Context, args map[string]any) (any, error) { return args, nil },
	})

	if _, err := dispatcher.Dispatch(context.Background(), "echo", map[string]any{"value": "x"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	obs := observer.last(t)
	if obs.Outcome != OutcomeSuccess {
		t.Errorf("Outcome = %q", obs.Outcome)
	}
	if obs.Source != SourceDirect {
		t.Errorf("Source = %q, want %q", obs.Source, SourceDirect)
	}
	if obs.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", obs.ExitCode)
	}
}

func TestCallTool_SuccessEnvelope(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil, map[string]Handler{
		"echo": func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"value": args["value"]}, nil
		},
	})

	result := dispatcher.CallTool(context.Background(), "echo", map[string]any{"value": "hi"})
	if result.IsError {
		t.Fatalf("IsError = true: %+v", result)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("content = %+v", result.Content)
	}
	if !strings.Contains(result.Content[0].Text, `"value": "hi"`) {
		t.Fatalf("text = %q", result.Content[0].Text)
	}
	if result.StructuredContent["value"] != "hi" {
		t.Fatalf("structured content = %v", result.StructuredContent)
	}
}

func TestCallTool_FailureIsEnvelopeNotError(t *testing.T) {
	observer := &captureObserver{}
	dispatcher := newTestDispatcher(t, observer, map[string]Handler{
		"echo": func(ctx context.Context, args map[string]any) (any, error) {
			return nil, stageFailure("Scan failed", &engine.ExecError{ExitCode: 7, Stderr: "boom"})
		},
	})

	result := dispatcher.CallTool(context.Background(), "echo", map[string]any{"value": "x"})
	if !result.IsError {
		t.Fatal("IsError = false, want true")
	}
	if !strings.HasPrefix(result.Content[0].Text, "Error: ") {
		t.Fatalf("text = %q, want Error: prefix", result.Content[0].Text)
	}
	if !strings.Contains(result.Content[0].Text, "boom") {
		t.Fatalf("text = %q, should carry engine stderr", result.Content[0].Text)
	}

	if obs := observer.last(t); obs.TraceID == "" {
		t.Error("CallTool should assign a trace ID when the context has none")
	}
}

func TestListTools_MirrorsDescriptors(t *testing.T) {
	descriptors, err := LoadDescriptors("")
	if err != nil {
		t.Fatalf("LoadDescriptors() error = %v", err)
	}
	registry, err := NewRegistry(descriptors)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	handlers := make(map[string]Handler, len(ToolIDs()))
	for _, id := range ToolIDs() {
		handlers[id] = func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }
	}
	dispatcher, err := NewDispatcher(registry, handlers, nil)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	tools := dispatcher.ListTools(context.Background())
	if len(tools) != len(ToolIDs()) {
		t.Fatalf("got %d tools, want %d", len(tools), len(ToolIDs()))
	}
	for i, id := range ToolIDs() {
		if tools[i].Name != id {
			t.Fatalf("tools[%d].Name = %q, want %q", i, tools[i].Name, id)
		}
		if tools[i].Description == "" {
			t.Fatalf("tool %q has no description", id)
		}
		if tools[i].InputSchema["type"] != "object" {
			t.Fatalf("tool %q input schema = %v", id, tools[i].InputSchema)
		}
	}
}
