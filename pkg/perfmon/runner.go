// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfmon

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/go-logr/logr"
)

// Runner executes a single diagnostic command and captures its result.
// Every outcome, including a binary that cannot be found or a command that
// exceeds the timeout, is reported through the returned Record; Run never
// returns an error because command failure must not abort a cycle.
type Runner struct {
	logger  logr.Logger
	timeout time.Duration
}

func NewRunner(logger logr.Logger, timeout time.Duration) *Runner {
	return &Runner{
		logger:  logger.WithName("runner"),
		timeout: timeout,
	}
}

// Run executes spec and returns its Record. The process is killed when ctx is
// cancelled or the per-command timeout expires; whatever output was produced
// up to that point is kept.
func (r *Runner) Run(ctx context.Context, spec CommandSpec) Record {
	rec := Record{
		Label:     spec.Label,
		Argv:      spec.Argv,
		Timestamp: time.Now(),
	}

	if len(spec.Argv) == 0 {
		rec.ExitStatus = -1
		rec.Err = fmt.Errorf("command %q has an empty argv", spec.Label)
		return rec
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Argv[0], spec.Argv[1:]...)
	// Without a wait delay, a killed shell whose child still holds the output
	// pipe (sh -c "...; sleep ...") would stall capture past the timeout.
	cmd.WaitDelay = time.Second
	output, err := cmd.CombinedOutput()
	rec.Duration = time.Since(rec.Timestamp)
	rec.Output = output

	switch {
	case err == nil:
		rec.ExitStatus = 0
	case errors.Is(err, exec.ErrWaitDelay):
		// The command exited cleanly but something it spawned kept the
		// output pipe open past the wait delay.
		rec.ExitStatus = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			rec.ExitStatus = exitErr.ExitCode()
		} else {
			// The process never started: binary not found, permission
			// denied, or the context was already done.
			rec.ExitStatus = -1
			rec.Err = err
		}
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		rec.TimedOut = true
		rec.Err = fmt.Errorf("command %q timed out after %v", spec.Label, r.timeout)
	}

	r.logger.V(2).Info("Executed command",
		"label", spec.Label,
		"exit_status", rec.ExitStatus,
		"duration", rec.Duration,
		"output_bytes", len(rec.Output),
		"timed_out", rec.TimedOut)

	return rec
}
