package execguard

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// captureLimit bounds how much child output the launcher retains.
// The guard truncates further before returning to the caller.
const captureLimit = 64 << 10

// ErrDeadline is returned by a Launcher when the process was killed
// because its deadline expired.
var ErrDeadline = errors.New("process deadline exceeded")

// Launcher spawns an external process with a hard deadline. The process
// is killed, not merely abandoned, when the deadline expires.
type Launcher interface {
	Run(ctx context.Context, argv []string, timeout time.Duration) (stdout, stderr string, exitCode int, err error)
}

// osLauncher runs processes via os/exec with context-based cancellation.
type osLauncher struct{}

// NewLauncher returns the default os/exec-backed Launcher.
func NewLauncher() Launcher {
	return osLauncher{}
}

func (osLauncher) Run(ctx context.Context, argv []string, timeout time.Duration) (string, string, int, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	stdout := newLimitedWriter(captureLimit)
	stderr := newLimitedWriter(captureLimit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// No stdin: allowlisted commands must never wait for input.
	cmd.Stdin = nil

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return stdout.String(), stderr.String(), -1, ErrDeadline
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			err = nil
		} else {
			return stdout.String(), stderr.String(), -1, err
		}
	}

	return stdout.String(), stderr.String(), exitCode, nil
}
