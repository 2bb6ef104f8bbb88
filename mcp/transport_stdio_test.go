package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestStdioTransport_ServeRoundTrip(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"initialize","params":{"clientInfo":{"name":"inspector"}}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	transport := NewStdioTransport(server, strings.NewReader(input), &out)
	if err := transport.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("responses = %d (%q), want 2", len(lines), out.String())
	}

	// Handlers run concurrently, so correlate responses by ID.
	byID := make(map[string]Message)
	for _, line := range lines {
		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		byID[string(msg.ID)] = msg
	}
	if msg, ok := byID["1"]; !ok || string(msg.Result) != "{}" {
		t.Errorf("ping response = %+v", byID["1"])
	}
	if msg, ok := byID["2"]; !ok || msg.Error != nil {
		t.Errorf("initialize response = %+v", msg)
	}
}

func TestStdioTransport_CleanEOF(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})
	transport := NewStdioTransport(server, strings.NewReader(""), io.Discard)

	if err := transport.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v, want nil on EOF", err)
	}
}

func TestStdioTransport_ContextCancellation(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})
	pr, pw := io.Pipe()
	defer pw.Close()

	transport := NewStdioTransport(server, pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- transport.Serve(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() error = %v, want canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestStdioTransport_WriteFailureSurfaces(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})
	input := `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n"
	transport := NewStdioTransport(server, strings.NewReader(input), failingWriter{})

	err := transport.Serve(context.Background())
	if err == nil || !strings.Contains(err.Error(), "stdio write") {
		t.Fatalf("Serve() error = %v, want write failure", err)
	}
}
