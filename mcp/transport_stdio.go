package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
)

const (
	initialFrameBytes = 64 * 1024
	maxFrameBytes     = 10 << 20
)

// StdioTransport serves MCP over newline-delimited JSON-RPC on a byte
// stream, one message per line. Requests are handled concurrently; response
// writes are serialized, so completions may interleave out of request order
// and clients must correlate by message ID.
type StdioTransport struct {
	server *Server
	in     io.Reader
	out    io.Writer

	mu       sync.Mutex
	writeErr error
}

// NewStdioTransport wraps server for serving on the in/out byte streams.
func NewStdioTransport(server *Server, in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{server: server, in: in, out: out}
}

// Serve reads frames until EOF, read failure, or context cancellation,
// draining in-flight handlers before returning. A clean EOF returns nil.
func (t *StdioTransport) Serve(ctx context.Context) error {
	frames := make(chan []byte)
	readDone := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(t.in)
		scanner.Buffer(make([]byte, 0, initialFrameBytes), maxFrameBytes)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			// The scanner reuses its buffer across Scan calls.
			frame := slices.Clone(line)
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
		readDone <- scanner.Err()
	}()

	var inflight sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			inflight.Wait()
			return ctx.Err()
		case err := <-readDone:
			inflight.Wait()
			if err != nil {
				return fmt.Errorf("mcp: stdio read: %w", err)
			}
			return t.firstWriteError()
		case frame := <-frames:
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				if response := t.server.Handle(ctx, frame); response != nil {
					t.write(response)
				}
			}()
		}
	}
}

func (t *StdioTransport) write(frame []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return
	}
	frame = append(frame, '\n')
	if _, err := t.out.Write(frame); err != nil {
		t.writeErr = fmt.Errorf("mcp: stdio write: %w", err)
	}
}

func (t *StdioTransport) firstWriteError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeErr
}
