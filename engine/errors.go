package engine

import "fmt"

// ExecError reports an engine process that could not be started or exited
// with a code outside the success set {0, 1}. Stderr carries the process
// error-stream text verbatim when any was produced.
type ExecError struct {
	ExitCode int
	Stderr   string
	Cause    error
}

// Error implements error.
func (e *ExecError) Error() string {
	switch {
	case e.ExitCode >= 0 && e.Stderr != "":
		return fmt.Sprintf("engine exited with code %d: %s", e.ExitCode, e.Stderr)
	case e.ExitCode >= 0:
		return fmt.Sprintf("engine exited with code %d", e.ExitCode)
	case e.Stderr != "":
		return fmt.Sprintf("engine terminated abnormally: %s", e.Stderr)
	default:
		return fmt.Sprintf("engine failed to start: %v", e.Cause)
	}
}

// Unwrap exposes the underlying process error.
func (e *ExecError) Unwrap() error { return e.Cause }

// ArtifactError reports a report artifact the engine was expected to write
// that could not be read or parsed.
type ArtifactError struct {
	Path  string
	Cause error
}

// Error implements error.
func (e *ArtifactError) Error() string {
	return fmt.Sprintf("engine artifact %s: %v", e.Path, e.Cause)
}

// Unwrap exposes the underlying read or parse error.
func (e *ArtifactError) Unwrap() error { return e.Cause }
