package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ToolProvider supplies the tools a Server exposes. CallTool reports tool
// failures inside the returned result envelope, never as a protocol error,
// so one misbehaving call can never take down the session.
type ToolProvider interface {
	ListTools(ctx context.Context) []Tool
	CallTool(ctx context.Context, name string, arguments map[string]any) ToolsCallResult
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Info     ServerInfo
	Provider ToolProvider

	// MaxConcurrent bounds overlapping tools/call executions. Zero leaves
	// them unbounded; each call still runs an independent engine process.
	MaxConcurrent int
}

// Server answers MCP JSON-RPC messages. It is transport-agnostic: transports
// frame bytes off the wire and hand each message to Handle.
type Server struct {
	info     ServerInfo
	provider ToolProvider
	slots    chan struct{}
}

// NewServer builds a Server from cfg.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Provider == nil {
		return nil, errors.New("mcp: tool provider is required")
	}
	s := &Server{
		info:     cfg.Info,
		provider: cfg.Provider,
	}
	if cfg.MaxConcurrent > 0 {
		s.slots = make(chan struct{}, cfg.MaxConcurrent)
	}
	return s, nil
}

// Handle processes one raw JSON-RPC message and returns the serialized
// response, or nil when the message was a notification and no response is
// owed. Handle is safe for concurrent use.
func (s *Server) Handle(ctx context.Context, data []byte) []byte {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		return marshalResponse(errorMessage(nil, CodeParseError, "parse error", err.Error()))
	}

	if message.JSONRPC != jsonRPCVersion || message.Method == "" {
		if isNotification(message) {
			return nil
		}
		return marshalResponse(errorMessage(message.ID, CodeInvalidRequest, "invalid request", ""))
	}

	if isNotification(message) {
		// Notifications such as notifications/initialized carry no reply.
		return nil
	}

	return marshalResponse(s.route(ctx, message))
}

func (s *Server) route(ctx context.Context, message Message) Message {
	switch message.Method {
	case "initialize":
		return s.handleInitialize(message)
	case "ping":
		return resultMessage(message.ID, map[string]any{})
	case "tools/list":
		return s.handleToolsList(ctx, message)
	case "tools/call":
		return s.handleToolsCall(ctx, message)
	default:
		return errorMessage(message.ID, CodeMethodNotFound, "method not found", fmt.Sprintf("unknown method %q", message.Method))
	}
}

func (s *Server) handleInitialize(message Message) Message {
	var params InitializeParams
	if len(message.Params) > 0 {
		if err := json.Unmarshal(message.Params, &params); err != nil {
			return errorMessage(message.ID, CodeInvalidParams, "invalid params", err.Error())
		}
	}

	return resultMessage(message.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
		ServerInfo: s.info,
	})
}

func (s *Server) handleToolsList(ctx context.Context, message Message) Message {
	return resultMessage(message.ID, ToolsListResult{Tools: s.provider.ListTools(ctx)})
}

func (s *Server) handleToolsCall(ctx context.Context, message Message) Message {
	var params ToolsCallParams
	if len(message.Params) == 0 {
		return errorMessage(message.ID, CodeInvalidParams, "invalid params", "params is required for tools/call")
	}
	if err := json.Unmarshal(message.Params, &params); err != nil {
		return errorMessage(message.ID, CodeInvalidParams, "invalid params", err.Error())
	}
	if params.Name == "" {
		return errorMessage(message.ID, CodeInvalidParams, "invalid params", "tool name is required")
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	if s.slots != nil {
		select {
		case s.slots <- struct{}{}:
			defer func() { <-s.slots }()
		case <-ctx.Done():
			return errorMessage(message.ID, CodeInternalError, "server is shutting down", ctx.Err().Error())
		}
	}

	return resultMessage(message.ID, s.provider.CallTool(ctx, params.Name, params.Arguments))
}

func isNotification(message Message) bool {
	return len(message.ID) == 0 || bytes.Equal(message.ID, []byte("null"))
}

func resultMessage(id json.RawMessage, result any) Message {
	data, err := json.Marshal(result)
	if err != nil {
		return errorMessage(id, CodeInternalError, "internal error", fmt.Sprintf("encoding result: %v", err))
	}
	return Message{JSONRPC: jsonRPCVersion, ID: id, Result: data}
}

func errorMessage(id json.RawMessage, code int, message, detail string) Message {
	rpcErr := &RPCError{Code: code, Message: message}
	if detail != "" {
		if data, err := json.Marshal(detail); err == nil {
			rpcErr.Data = data
		}
	}
	if id == nil {
		id = json.RawMessage("null")
	}
	return Message{JSONRPC: jsonRPCVersion, ID: id, Error: rpcErr}
}

func marshalResponse(message Message) []byte {
	data, err := json.Marshal(message)
	if err != nil {
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"internal error"}}`)
	}
	return data
}
