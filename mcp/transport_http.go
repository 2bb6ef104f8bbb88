package mcp

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPTransport serves MCP over HTTP. Each POST carries one JSON-RPC
// message; the response is returned as the HTTP body, framed as a single
// server-sent event when the client accepts only text/event-stream.
type HTTPTransport struct {
	server *Server
}

// NewHTTPTransport wraps server for HTTP serving.
func NewHTTPTransport(server *Server) *HTTPTransport {
	return &HTTPTransport{server: server}
}

// ServeHTTP implements http.Handler.
func (t *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	response := t.server.Handle(r.Context(), body)
	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if wantsEventStream(r) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", response)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(response)
}

func wantsEventStream(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/event-stream") && !strings.Contains(accept, "application/json")
}
