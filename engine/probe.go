package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// probeTimeout bounds one version probe.
const probeTimeout = 10 * time.Second

// Probe checks that the engine binary at path can be executed, returning its
// self-reported version line. Used at startup and by scheduled health checks.
func Probe(ctx context.Context, binary string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	// #nosec G204 -- the binary path comes from bridge configuration.
	cmd := exec.CommandContext(probeCtx, binary, "--version")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", &ExecError{ExitCode: exitCode, Stderr: strings.TrimSpace(stderr.String()), Cause: err}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Probe reports the version of the binary this runner invokes.
func (r *Runner) Probe(ctx context.Context) (string, error) {
	return Probe(ctx, r.binary)
}
