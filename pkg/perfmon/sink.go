// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfmon

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// timestampLayout matches the historical log format of the monitoring scripts
const timestampLayout = "2006-01-02 15:04:05"

// SessionInfo describes one collection run and is written once at the top of
// the log before any cycle.
type SessionInfo struct {
	RunID    string
	PID      int
	NodeName string
	Platform Platform
	Start    time.Time
	Interval time.Duration
	Duration time.Duration
}

// RecordSink receives the results of a collection run in execution order.
// The Monitor owns a single sink and calls it from its one goroutine, so
// implementations do not need to be safe for concurrent use. A returned
// error is fatal to the run: the log file being unwritable is the only
// condition the engine does not absorb.
type RecordSink interface {
	Name() string
	SessionStart(info SessionInfo) error
	CycleStart(cycle int, at time.Time) error
	Write(rec Record) error
	SessionEnd(at time.Time, cycles int) error
	Close() error
}

// Compile-time checks
var _ RecordSink = (*FileSink)(nil)
var _ RecordSink = (*MultiSink)(nil)

// FileSink appends records to a plain text log file. The file is opened in
// append mode and never truncated, so pointing a new run at an existing path
// preserves prior records. Each write goes straight to the file descriptor;
// records must be durable the moment they are written.
type FileSink struct {
	path string
	file *os.File
}

// NewFileSink opens (or creates) the log file at path for appending
func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return &FileSink{path: path, file: file}, nil
}

func (s *FileSink) Name() string {
	return "file"
}

// Path returns the log file path
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) SessionStart(info SessionInfo) error {
	_, err := fmt.Fprintf(s.file,
		"%s - INFO - ==== perfmon session %s started: platform=%s pid=%d node=%s interval=%v duration=%v ====\n",
		info.Start.Format(timestampLayout), info.RunID, info.Platform, info.PID,
		info.NodeName, info.Interval, info.Duration)
	return err
}

func (s *FileSink) CycleStart(cycle int, at time.Time) error {
	_, err := fmt.Fprintf(s.file, "%s - INFO - ---- cycle %d ----\n",
		at.Format(timestampLayout), cycle)
	return err
}

func (s *FileSink) Write(rec Record) error {
	level := "INFO"
	if rec.Failed() {
		level = "ERROR"
	}

	header := fmt.Sprintf("%s - %s - [%s] %s (exit %d, %v)",
		rec.Timestamp.Format(timestampLayout), level, rec.Label,
		strings.Join(rec.Argv, " "), rec.ExitStatus, rec.Duration.Round(time.Millisecond))
	if rec.Err != nil {
		header += fmt.Sprintf(": %v", rec.Err)
	}

	if _, err := fmt.Fprintln(s.file, header); err != nil {
		return err
	}
	if len(rec.Output) > 0 {
		if _, err := s.file.Write(rec.Output); err != nil {
			return err
		}
		if !bytes.HasSuffix(rec.Output, []byte("\n")) {
			if _, err := fmt.Fprintln(s.file); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *FileSink) SessionEnd(at time.Time, cycles int) error {
	_, err := fmt.Fprintf(s.file, "%s - INFO - ==== perfmon session completed: cycles=%d ====\n",
		at.Format(timestampLayout), cycles)
	return err
}

func (s *FileSink) Close() error {
	return s.file.Close()
}

// MultiSink fans every call out to an ordered list of sinks. The first error
// stops the fan-out and is returned, so a failing file sink keeps its fatal
// semantics even when other sinks are attached.
type MultiSink struct {
	sinks []RecordSink
}

func NewMultiSink(sinks ...RecordSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Name() string {
	return "multi"
}

func (m *MultiSink) SessionStart(info SessionInfo) error {
	for _, sink := range m.sinks {
		if err := sink.SessionStart(info); err != nil {
			return fmt.Errorf("sink %s: %w", sink.Name(), err)
		}
	}
	return nil
}

func (m *MultiSink) CycleStart(cycle int, at time.Time) error {
	for _, sink := range m.sinks {
		if err := sink.CycleStart(cycle, at); err != nil {
			return fmt.Errorf("sink %s: %w", sink.Name(), err)
		}
	}
	return nil
}

func (m *MultiSink) Write(rec Record) error {
	for _, sink := range m.sinks {
		if err := sink.Write(rec); err != nil {
			return fmt.Errorf("sink %s: %w", sink.Name(), err)
		}
	}
	return nil
}

func (m *MultiSink) SessionEnd(at time.Time, cycles int) error {
	for _, sink := range m.sinks {
		if err := sink.SessionEnd(at, cycles); err != nil {
			return fmt.Errorf("sink %s: %w", sink.Name(), err)
		}
	}
	return nil
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
