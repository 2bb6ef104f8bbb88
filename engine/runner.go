package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Format values accepted by the engine's --format flag.
const (
	FormatSC13  = "sc13"
	FormatOSCAL = "oscal"
)

// DefaultTimeout bounds one engine invocation when the caller supplies no
// deadline of its own.
const DefaultTimeout = 2 * time.Minute

// killGracePeriod bounds how long Run waits for the engine's output pipes
// after the process is killed on cancellation.
const killGracePeriod = 5 * time.Second

// Runner invokes the engine binary and parses the artifact it writes.
// Runners are stateless apart from their Scratch and safe for concurrent use.
type Runner struct {
	binary  string
	timeout time.Duration
	scratch *Scratch
}

// NewRunner returns a Runner for the engine at binary. A non-positive
// timeout selects DefaultTimeout.
func NewRunner(binary string, timeout time.Duration, scratch *Scratch) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{binary: binary, timeout: timeout, scratch: scratch}
}

// Request describes one scan invocation.
type Request struct {
	Path   string
	Format string
}

// Result carries the parsed report plus raw process facts.
type Result struct {
	Report     Report
	ExitCode   int
	Stderr     string
	DurationMS int64
}

// Run executes one scan. The engine writes its report to a scratch artifact
// that is removed before Run returns on every path. Exit codes 0 (clean) and
// 1 (findings present) both succeed and parse the artifact; any other exit
// code, and any spawn failure, returns ExecError carrying the error-stream
// text. A context deadline or cancellation kills the child process and
// surfaces the context error.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	format := req.Format
	if format == "" {
		format = FormatSC13
	}

	artifact, release := r.scratch.Create("report", ".json")
	defer release()

	execCtx, cancel := withRunTimeout(ctx, r.timeout)
	defer cancel()

	// #nosec G204 -- the binary path comes from bridge configuration and the
	// argument vector is assembled from validated tool arguments.
	cmd := exec.CommandContext(execCtx, r.binary,
		"--path", req.Path,
		"--output", artifact,
		"--format", format,
	)
	cmd.WaitDelay = killGracePeriod

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	stderrText := strings.TrimSpace(stderr.String())

	if execCtx.Err() != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("engine run timed out: %w", context.DeadlineExceeded)
		}
		return Result{}, fmt.Errorf("engine run canceled: %w", execCtx.Err())
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return Result{}, &ExecError{ExitCode: -1, Stderr: stderrText, Cause: runErr}
		}
		exitCode = exitErr.ExitCode()
		if exitCode != 1 {
			return Result{}, &ExecError{ExitCode: exitCode, Stderr: stderrText, Cause: runErr}
		}
	}

	report, err := ParseReportFile(artifact)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Report:     report,
		ExitCode:   exitCode,
		Stderr:     stderrText,
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

func withRunTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := parent.Deadline(); !hasDeadline && timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return parent, func() {}
}
