// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfmon_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/perfmon/pkg/perfmon"
)

// memorySink records every sink call in order for assertions
type memorySink struct {
	session  *perfmon.SessionInfo
	cycles   []int
	records  []perfmon.Record
	ended    bool
	endCount int
	closed   bool

	failWrite error // returned from Write when set
}

func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) SessionStart(info perfmon.SessionInfo) error {
	s.session = &info
	return nil
}

func (s *memorySink) CycleStart(cycle int, at time.Time) error {
	s.cycles = append(s.cycles, cycle)
	return nil
}

func (s *memorySink) Write(rec perfmon.Record) error {
	if s.failWrite != nil {
		return s.failWrite
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) SessionEnd(at time.Time, cycles int) error {
	s.ended = true
	s.endCount = cycles
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func testConfig(interval, duration time.Duration) perfmon.CollectionConfig {
	return perfmon.CollectionConfig{
		Interval:       interval,
		Duration:       duration,
		CommandTimeout: 5 * time.Second,
		LogDir:         "/tmp",
		Platform:       perfmon.PlatformLinux,
		NodeName:       "test-node",
	}
}

var echoTable = perfmon.Table{
	{Label: "echo_ok", Argv: []string{"echo", "ok"}},
}

func TestMonitor_CycleCount(t *testing.T) {
	// duration = 3 x interval must produce 3 cycles, +-1 for timing drift
	sink := &memorySink{}
	monitor, err := perfmon.NewMonitor(testr.New(t), testConfig(50*time.Millisecond, 150*time.Millisecond), echoTable, sink)
	require.NoError(t, err)

	err = monitor.Run(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, monitor.Cycles(), 2)
	assert.LessOrEqual(t, monitor.Cycles(), 4)
	assert.Len(t, sink.records, monitor.Cycles())
	for _, rec := range sink.records {
		assert.Equal(t, "echo_ok", rec.Label)
		assert.Equal(t, 0, rec.ExitStatus)
		assert.Equal(t, "ok\n", string(rec.Output))
	}
	assert.Equal(t, perfmon.MonitorStatusFinished, monitor.Status())
	assert.NoError(t, monitor.LastError())
}

func TestMonitor_RecordSpacing(t *testing.T) {
	sink := &memorySink{}
	monitor, err := perfmon.NewMonitor(testr.New(t), testConfig(100*time.Millisecond, 200*time.Millisecond), echoTable, sink)
	require.NoError(t, err)

	require.NoError(t, monitor.Run(context.Background()))
	require.GreaterOrEqual(t, len(sink.records), 2)

	for i := 1; i < len(sink.records); i++ {
		gap := sink.records[i].Timestamp.Sub(sink.records[i-1].Timestamp)
		assert.GreaterOrEqual(t, gap, 90*time.Millisecond,
			"records must be spaced at least one interval apart")
	}
}

func TestMonitor_ZeroDurationRunsOneCycle(t *testing.T) {
	sink := &memorySink{}
	monitor, err := perfmon.NewMonitor(testr.New(t), testConfig(time.Hour, 0), echoTable, sink)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- monitor.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run with zero duration did not terminate promptly")
	}

	assert.Equal(t, 1, monitor.Cycles())
	assert.Len(t, sink.records, 1)
	assert.True(t, sink.ended)
	assert.Equal(t, 1, sink.endCount)
}

func TestMonitor_SessionHeader(t *testing.T) {
	sink := &memorySink{}
	cfg := testConfig(50*time.Millisecond, 0)
	monitor, err := perfmon.NewMonitor(testr.New(t), cfg, echoTable, sink)
	require.NoError(t, err)

	require.NoError(t, monitor.Run(context.Background()))

	require.NotNil(t, sink.session)
	assert.NotEmpty(t, sink.session.RunID)
	assert.Equal(t, perfmon.PlatformLinux, sink.session.Platform)
	assert.Equal(t, "test-node", sink.session.NodeName)
	assert.Equal(t, cfg.Interval, sink.session.Interval)
	assert.NotZero(t, sink.session.PID)
}

func TestMonitor_FailedCommandDoesNotAbortCycle(t *testing.T) {
	table := perfmon.Table{
		{Label: "first_ok", Argv: []string{"echo", "first"}},
		{Label: "missing", Argv: []string{"definitely-not-a-real-binary-4927"}, Optional: true},
		{Label: "broken", Argv: []string{"sh", "-c", "exit 2"}},
		{Label: "last_ok", Argv: []string{"echo", "last"}},
	}

	sink := &memorySink{}
	monitor, err := perfmon.NewMonitor(testr.New(t), testConfig(50*time.Millisecond, 0), table, sink)
	require.NoError(t, err)

	require.NoError(t, monitor.Run(context.Background()))

	// One record per entry, in table order, success or failure alike
	require.Len(t, sink.records, 4)
	assert.Equal(t, "first_ok", sink.records[0].Label)
	assert.Equal(t, "missing", sink.records[1].Label)
	assert.Equal(t, "broken", sink.records[2].Label)
	assert.Equal(t, "last_ok", sink.records[3].Label)

	assert.False(t, sink.records[0].Failed())
	assert.True(t, sink.records[1].Failed())
	assert.Error(t, sink.records[1].Err)
	assert.True(t, sink.records[2].Failed())
	assert.Equal(t, 2, sink.records[2].ExitStatus)
	assert.False(t, sink.records[3].Failed())
	assert.Equal(t, "last\n", string(sink.records[3].Output))
}

func TestMonitor_SinkWriteFailureIsFatal(t *testing.T) {
	sink := &memorySink{failWrite: fmt.Errorf("disk full")}
	monitor, err := perfmon.NewMonitor(testr.New(t), testConfig(50*time.Millisecond, time.Minute), echoTable, sink)
	require.NoError(t, err)

	err = monitor.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, perfmon.MonitorStatusFailed, monitor.Status())
	assert.Error(t, monitor.LastError())
}

func TestMonitor_ContextCancellation(t *testing.T) {
	sink := &memorySink{}
	monitor, err := perfmon.NewMonitor(testr.New(t), testConfig(50*time.Millisecond, time.Hour), echoTable, sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- monitor.Run(ctx) }()

	time.Sleep(120 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		// Operator termination is a clean stop, not an error
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}

	assert.GreaterOrEqual(t, monitor.Cycles(), 1)
	assert.NotEmpty(t, sink.records)
	assert.True(t, sink.ended, "session trailer must still be written on cancellation")
}

func TestNewMonitor_Validation(t *testing.T) {
	logger := testr.New(t)
	sink := &memorySink{}

	_, err := perfmon.NewMonitor(logger, perfmon.CollectionConfig{Interval: -time.Second}, echoTable, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid collection config")

	_, err = perfmon.NewMonitor(logger, testConfig(time.Second, time.Second), perfmon.Table{}, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	dup := perfmon.Table{
		{Label: "a", Argv: []string{"echo"}},
		{Label: "a", Argv: []string{"true"}},
	}
	_, err = perfmon.NewMonitor(logger, testConfig(time.Second, time.Second), dup, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid command table")

	_, err = perfmon.NewMonitor(logger, testConfig(time.Second, time.Second), echoTable, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink is required")
}
