// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfmon_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/perfmon/pkg/perfmon"
)

func TestRunner_Success(t *testing.T) {
	runner := perfmon.NewRunner(testr.New(t), 0)

	rec := runner.Run(context.Background(), perfmon.CommandSpec{
		Label: "echo_ok",
		Argv:  []string{"echo", "ok"},
	})

	assert.Equal(t, "echo_ok", rec.Label)
	assert.Equal(t, 0, rec.ExitStatus)
	assert.Equal(t, "ok\n", string(rec.Output))
	assert.NoError(t, rec.Err)
	assert.False(t, rec.TimedOut)
	assert.False(t, rec.Failed())
	assert.False(t, rec.Timestamp.IsZero())
}

func TestRunner_NonZeroExit(t *testing.T) {
	runner := perfmon.NewRunner(testr.New(t), 0)

	rec := runner.Run(context.Background(), perfmon.CommandSpec{
		Label: "always_fails",
		Argv:  []string{"sh", "-c", "echo broken >&2; exit 3"},
	})

	assert.Equal(t, 3, rec.ExitStatus)
	// Non-zero exit is reported via the status, not Err
	assert.NoError(t, rec.Err)
	assert.True(t, rec.Failed())
	assert.Equal(t, "broken\n", string(rec.Output))
}

func TestRunner_CombinedOutput(t *testing.T) {
	runner := perfmon.NewRunner(testr.New(t), 0)

	rec := runner.Run(context.Background(), perfmon.CommandSpec{
		Label: "both_streams",
		Argv:  []string{"sh", "-c", "echo out; echo err >&2"},
	})

	require.Equal(t, 0, rec.ExitStatus)
	assert.Contains(t, string(rec.Output), "out")
	assert.Contains(t, string(rec.Output), "err")
}

func TestRunner_BinaryNotFound(t *testing.T) {
	runner := perfmon.NewRunner(testr.New(t), 0)

	rec := runner.Run(context.Background(), perfmon.CommandSpec{
		Label: "missing_binary",
		Argv:  []string{"definitely-not-a-real-binary-4927"},
	})

	assert.Equal(t, -1, rec.ExitStatus)
	require.Error(t, rec.Err)
	assert.True(t, rec.Failed())
	assert.False(t, rec.TimedOut)
}

func TestRunner_EmptyArgv(t *testing.T) {
	runner := perfmon.NewRunner(testr.New(t), 0)

	rec := runner.Run(context.Background(), perfmon.CommandSpec{Label: "empty"})

	assert.Equal(t, -1, rec.ExitStatus)
	require.Error(t, rec.Err)
	assert.Contains(t, rec.Err.Error(), "empty argv")
}

func TestRunner_Timeout(t *testing.T) {
	runner := perfmon.NewRunner(testr.New(t), 100*time.Millisecond)

	start := time.Now()
	rec := runner.Run(context.Background(), perfmon.CommandSpec{
		Label: "hung_command",
		Argv:  []string{"sleep", "10"},
	})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, rec.TimedOut)
	require.Error(t, rec.Err)
	assert.Contains(t, rec.Err.Error(), "timed out")
	assert.True(t, rec.Failed())
}

func TestRunner_TimeoutKeepsPartialOutput(t *testing.T) {
	runner := perfmon.NewRunner(testr.New(t), 300*time.Millisecond)

	rec := runner.Run(context.Background(), perfmon.CommandSpec{
		Label: "slow_command",
		Argv:  []string{"sh", "-c", "echo partial; sleep 10"},
	})

	assert.True(t, rec.TimedOut)
	assert.Contains(t, string(rec.Output), "partial")
}

func TestRunner_ContextCancellation(t *testing.T) {
	runner := perfmon.NewRunner(testr.New(t), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := runner.Run(ctx, perfmon.CommandSpec{
		Label: "cancelled",
		Argv:  []string{"sleep", "10"},
	})

	// Parent cancellation is not reported as a timeout
	assert.False(t, rec.TimedOut)
	assert.True(t, rec.Failed())
}
