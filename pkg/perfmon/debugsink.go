// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfmon

import (
	"time"

	"github.com/go-logr/logr"
)

// Compile-time check
var _ RecordSink = (*DebugSink)(nil)

// DebugSink mirrors record metadata into the structured log. It never writes
// the captured output itself, only sizes and statuses, and it never fails.
type DebugSink struct {
	logger logr.Logger
}

func NewDebugSink(logger logr.Logger) *DebugSink {
	return &DebugSink{logger: logger.WithName("debug-sink")}
}

func (s *DebugSink) Name() string {
	return "debug"
}

func (s *DebugSink) SessionStart(info SessionInfo) error {
	s.logger.Info("Session started",
		"run_id", info.RunID,
		"platform", info.Platform,
		"pid", info.PID,
		"node", info.NodeName,
		"interval", info.Interval,
		"duration", info.Duration)
	return nil
}

func (s *DebugSink) CycleStart(cycle int, at time.Time) error {
	s.logger.V(1).Info("Cycle started", "cycle", cycle)
	return nil
}

func (s *DebugSink) Write(rec Record) error {
	if rec.Failed() {
		s.logger.Info("Command failed",
			"label", rec.Label,
			"exit_status", rec.ExitStatus,
			"timed_out", rec.TimedOut,
			"error", rec.Err,
			"output_bytes", len(rec.Output))
		return nil
	}
	s.logger.V(1).Info("Command captured",
		"label", rec.Label,
		"duration", rec.Duration,
		"output_bytes", len(rec.Output))
	return nil
}

func (s *DebugSink) SessionEnd(at time.Time, cycles int) error {
	s.logger.Info("Session completed", "cycles", cycles)
	return nil
}

func (s *DebugSink) Close() error {
	return nil
}
