// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfmon

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Monitor runs the bounded collection loop: once per interval it executes
// every command in its table, in order, and hands each result to the sink,
// until the configured duration has elapsed.
//
// Execution is strictly sequential. One command runs to completion (or to
// its timeout) before the next begins, and the Monitor is the only writer
// to its sink for the lifetime of the run.
type Monitor struct {
	cfg    CollectionConfig
	table  Table
	runner *Runner
	sink   RecordSink
	logger logr.Logger

	mu        sync.RWMutex
	status    MonitorStatus
	lastError error
	cycles    int
}

// NewMonitor builds a Monitor for the given configuration, table and sink.
// The configuration is defaulted and validated here; after construction it
// is immutable for the run.
func NewMonitor(logger logr.Logger, cfg CollectionConfig, table Table, sink RecordSink) (*Monitor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid collection config: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command table: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("command table is empty")
	}
	if sink == nil {
		return nil, fmt.Errorf("record sink is required")
	}

	return &Monitor{
		cfg:    cfg,
		table:  table,
		runner: NewRunner(logger, cfg.CommandTimeout),
		sink:   sink,
		logger: logger.WithName("monitor"),
		status: MonitorStatusIdle,
	}, nil
}

// Run executes collection cycles until the configured duration has elapsed
// or ctx is cancelled. Cancellation is a clean stop: the record being
// written is finished and Run returns nil. The only error Run returns is a
// sink failure, which is fatal to the run.
func (m *Monitor) Run(ctx context.Context) error {
	m.setStatus(MonitorStatusRunning)

	start := time.Now()
	info := SessionInfo{
		RunID:    uuid.NewString(),
		PID:      os.Getpid(),
		NodeName: m.cfg.NodeName,
		Platform: m.cfg.Platform,
		Start:    start,
		Interval: m.cfg.Interval,
		Duration: m.cfg.Duration,
	}

	if err := m.sink.SessionStart(info); err != nil {
		return m.fail(fmt.Errorf("failed to write session header: %w", err))
	}

	m.logger.Info("Starting collection run",
		"run_id", info.RunID,
		"platform", m.cfg.Platform,
		"commands", len(m.table),
		"interval", m.cfg.Interval,
		"duration", m.cfg.Duration)

	for cycle := 1; ; cycle++ {
		cycleStart := time.Now()
		if err := m.runCycle(ctx, cycle); err != nil {
			return m.fail(err)
		}
		m.incrementCycles()

		if ctx.Err() != nil {
			m.logger.Info("Collection run cancelled", "cycles", m.Cycles())
			break
		}
		if time.Since(start) >= m.cfg.Duration {
			break
		}

		// Sleep for the remainder of the interval, clamped to zero when
		// the cycle overran it.
		sleep := m.cfg.Interval - time.Since(cycleStart)
		if sleep < 0 {
			sleep = 0
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("Collection run cancelled", "cycles", m.Cycles())
		case <-timer.C:
		}

		if ctx.Err() != nil || time.Since(start) >= m.cfg.Duration {
			break
		}
	}

	if err := m.sink.SessionEnd(time.Now(), m.Cycles()); err != nil {
		return m.fail(fmt.Errorf("failed to write session trailer: %w", err))
	}

	m.setStatus(MonitorStatusFinished)
	m.logger.Info("Collection run finished",
		"cycles", m.Cycles(), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// runCycle executes every table entry in order. Command failures are data,
// not errors; only a sink write failure propagates.
func (m *Monitor) runCycle(ctx context.Context, cycle int) error {
	cycleStart := time.Now()
	if err := m.sink.CycleStart(cycle, cycleStart); err != nil {
		return fmt.Errorf("failed to write cycle header: %w", err)
	}

	failed := 0
	for _, spec := range m.table {
		if ctx.Err() != nil {
			return nil
		}

		rec := m.runner.Run(ctx, spec)
		if rec.Failed() {
			failed++
			if spec.Optional {
				m.logger.V(1).Info("Optional command failed",
					"label", spec.Label, "exit_status", rec.ExitStatus, "error", rec.Err)
			} else {
				m.logger.Info("Command failed",
					"label", spec.Label, "exit_status", rec.ExitStatus, "error", rec.Err)
			}
		}

		if err := m.sink.Write(rec); err != nil {
			return fmt.Errorf("failed to write record for %q: %w", spec.Label, err)
		}
	}

	m.logger.V(1).Info("Completed collection cycle",
		"cycle", cycle,
		"commands", len(m.table),
		"failed", failed,
		"elapsed", time.Since(cycleStart).Round(time.Millisecond))
	return nil
}

// Status returns the current run status
func (m *Monitor) Status() MonitorStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// LastError returns the error that ended the run, if any
func (m *Monitor) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// Cycles returns the number of completed cycles
func (m *Monitor) Cycles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cycles
}

func (m *Monitor) setStatus(status MonitorStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

func (m *Monitor) incrementCycles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
}

func (m *Monitor) fail(err error) error {
	m.mu.Lock()
	m.status = MonitorStatusFailed
	m.lastError = err
	m.mu.Unlock()
	m.logger.Error(err, "Collection run failed")
	return err
}
