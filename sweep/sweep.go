// Package sweep executes a comparison sweep plan against the external
// benchmark binary, one invocation at a time.
package sweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/priobench/priosweep/grid"
)

// Launcher runs one argument vector to completion and returns the raw
// bytes the subprocess wrote to standard output. Standard error is
// captured so it cannot interleave with the sweep's own output, but its
// content is discarded. A non-zero exit or a failure to launch is
// returned as an error.
type Launcher interface {
	Launch(ctx context.Context, argv []string) ([]byte, error)
}

// ExecLauncher is the production Launcher backed by os/exec. Each call
// blocks until the subprocess exits.
type ExecLauncher struct{}

// Launch implements Launcher.
func (ExecLauncher) Launch(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty argument vector")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf(
				"command %v exited with status %d",
				argv, exitErr.ExitCode(),
			)
		}

		return nil, fmt.Errorf("launch %v: %w", argv, err)
	}

	return stdout.Bytes(), nil
}

// RunConfig holds parameters for one sweep execution.
type RunConfig struct {
	// Timeout bounds a single invocation. Zero means no limit: a hung
	// subprocess hangs the sweep.
	Timeout time.Duration
}

// Runner executes a plan strictly sequentially, printing one decoded
// line per invocation to Out in invocation order.
type Runner struct {
	Launcher Launcher
	Out      io.Writer
	Logger   *slog.Logger
}

// NewRunner creates a Runner that launches via launcher and prints the
// decoded per-invocation lines to out.
func NewRunner(launcher Launcher, out io.Writer, logger *slog.Logger) *Runner {
	return &Runner{
		Launcher: launcher,
		Out:      out,
		Logger:   logger,
	}
}

// Run executes every invocation in plan order. The first failure
// (launch error, non-zero exit, invalid UTF-8 output, or a write error
// on Out) aborts the sweep; no further invocations are attempted.
func (r *Runner) Run(
	ctx context.Context,
	plan []grid.Invocation,
	cfg RunConfig,
) error {
	for i, inv := range plan {
		if err := r.runOne(ctx, inv, cfg); err != nil {
			return fmt.Errorf("invocation %d/%d: %w", i+1, len(plan), err)
		}
	}

	return nil
}

func (r *Runner) runOne(
	ctx context.Context,
	inv grid.Invocation,
	cfg RunConfig,
) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	argv := inv.Argv()

	r.Logger.Debug("launching", slog.Any("argv", argv))

	start := time.Now()

	out, err := r.Launcher.Launch(ctx, argv)
	if err != nil {
		return err
	}

	r.Logger.Debug("finished",
		slog.Any("argv", argv),
		slog.Duration("wall_time", time.Since(start)),
	)

	if !utf8.Valid(out) {
		return fmt.Errorf("command %v wrote invalid UTF-8 to stdout", argv)
	}

	// The binary terminates its output with a newline; drop it so the
	// printed line count matches the invocation count.
	if len(out) > 0 {
		out = out[:len(out)-1]
	}

	if _, err := fmt.Fprintf(r.Out, "%s\n", out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
