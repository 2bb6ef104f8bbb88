package pqcbridge

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ErrorCodeConfiguration marks a bad or missing descriptor at startup.
	// Fatal: the server refuses to start.
	ErrorCodeConfiguration = "CONFIGURATION"
	// ErrorCodeUnknownTool is returned when a call names an unregistered tool.
	ErrorCodeUnknownTool = "UNKNOWN_TOOL"
	// ErrorCodeInvalidArgument is returned when arguments violate the tool's
	// input schema. The message names the offending field.
	ErrorCodeInvalidArgument = "INVALID_ARGUMENT"
	// ErrorCodeEngineExecution is returned for a non-{0,1} engine exit code or
	// a spawn failure. The message carries the captured stderr text.
	ErrorCodeEngineExecution = "ENGINE_EXECUTION"
	// ErrorCodeEngineTimeout is returned when the engine outlives its deadline
	// and is killed.
	ErrorCodeEngineTimeout = "ENGINE_TIMEOUT"
	// ErrorCodeArtifact is returned when a scratch file cannot be written,
	// read back, or parsed.
	ErrorCodeArtifact = "ARTIFACT"
	// ErrorCodeCanceled is returned when the caller abandons an in-flight
	// invocation.
	ErrorCodeCanceled = "CANCELED"
	// ErrorCodeInternal is the fallback for faults with no better code.
	ErrorCodeInternal = "INTERNAL"
)

// BridgeError is a structured invocation error. It carries a machine-readable
// code for observations and history records, a human-readable message for the
// protocol error envelope, and the wrapped cause for errors.Is/errors.As.
type BridgeError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *BridgeError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	msg := strings.TrimSpace(e.Message)
	switch {
	case code == "" && msg == "":
		return ErrorCodeInternal
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return fmt.Sprintf("%s: %s", code, msg)
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *BridgeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newBridgeError(code, message string, cause error) *BridgeError {
	cleanCode := strings.TrimSpace(code)
	if cleanCode == "" {
		cleanCode = ErrorCodeInternal
	}
	cleanMsg := strings.TrimSpace(message)
	if cleanMsg == "" && cause != nil {
		cleanMsg = cause.Error()
	}
	return &BridgeError{
		Code:    cleanCode,
		Message: cleanMsg,
		Cause:   cause,
	}
}

func withErrorDetails(err *BridgeError, details map[string]any) *BridgeError {
	if err == nil {
		return nil
	}
	if len(details) == 0 {
		return err
	}
	if err.Details == nil {
		err.Details = make(map[string]any, len(details))
	}
	for key, value := range details {
		err.Details[key] = value
	}
	return err
}

// ErrorCode extracts the machine-readable code from a BridgeError chain.
// Returns "" for nil and for errors that carry no BridgeError.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var bridgeErr *BridgeError
	if errors.As(err, &bridgeErr) && bridgeErr != nil {
		return bridgeErr.Code
	}
	return ""
}

// errorExitCode extracts the engine exit code recorded in the error details,
// if the failure carries one.
func errorExitCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) || bridgeErr == nil {
		return 0, false
	}
	code, ok := bridgeErr.Details["exit_code"].(int)
	return code, ok
}

// errorMessage returns the text presented in a protocol error envelope.
// BridgeError messages are already user-facing; anything else falls back to
// Error().
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var bridgeErr *BridgeError
	if errors.As(err, &bridgeErr) && bridgeErr != nil && strings.TrimSpace(bridgeErr.Message) != "" {
		return bridgeErr.Message
	}
	return err.Error()
}
