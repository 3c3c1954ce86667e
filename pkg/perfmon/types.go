// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfmon

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Platform identifies which command table to collect with
type Platform string

const (
	PlatformLinux  Platform = "linux"
	PlatformDarwin Platform = "darwin"
	PlatformAIX    Platform = "aix"
)

// logFilePrefixes maps platforms to the historical log file name prefixes
var logFilePrefixes = map[Platform]string{
	PlatformLinux:  "Linux",
	PlatformDarwin: "MacOS",
	PlatformAIX:    "AIX",
}

// CommandSpec describes one diagnostic command in a platform's table.
// Argv is executed directly, without shell interpretation; entries that need
// pipes or redirection wrap themselves in "sh -c".
type CommandSpec struct {
	// Label uniquely identifies the command within its table and is written
	// into every log record header
	Label string
	// Argv is the program and its arguments, in order
	Argv []string
	// Optional marks commands that are expected to be missing or to fail on
	// some systems (e.g. nfsstat when NFS isn't configured). Failures are
	// captured like any other but logged at a lower severity.
	Optional bool
}

// Table is an ordered list of commands collected once per cycle
type Table []CommandSpec

// Validate checks that every entry has a label, a non-empty argv, and that
// labels are unique within the table.
func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t))
	for i, spec := range t {
		if spec.Label == "" {
			return fmt.Errorf("entry %d has an empty label", i)
		}
		if len(spec.Argv) == 0 {
			return fmt.Errorf("entry %q has an empty argv", spec.Label)
		}
		if _, exists := seen[spec.Label]; exists {
			return fmt.Errorf("duplicate label %q", spec.Label)
		}
		seen[spec.Label] = struct{}{}
	}
	return nil
}

// Labels returns the table's labels in order
func (t Table) Labels() []string {
	labels := make([]string, 0, len(t))
	for _, spec := range t {
		labels = append(labels, spec.Label)
	}
	return labels
}

// Without returns a copy of the table with the given labels removed.
// Unknown labels are ignored.
func (t Table) Without(labels ...string) Table {
	drop := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		drop[label] = struct{}{}
	}

	out := make(Table, 0, len(t))
	for _, spec := range t {
		if _, skip := drop[spec.Label]; skip {
			continue
		}
		out = append(out, spec)
	}
	return out
}

// Merge returns a copy of the table with extra commands appended.
// It fails if an extra command reuses an existing label.
func (t Table) Merge(extra ...CommandSpec) (Table, error) {
	out := make(Table, 0, len(t)+len(extra))
	out = append(out, t...)
	out = append(out, extra...)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Record is the result of executing one command. Records are append-only:
// created when the command completes, written immediately, never revisited.
type Record struct {
	// Label of the CommandSpec that produced this record
	Label string
	// Argv that was executed
	Argv []string
	// Timestamp when execution started
	Timestamp time.Time
	// Duration of the execution
	Duration time.Duration
	// ExitStatus of the process; -1 when the process could not be started
	ExitStatus int
	// Output is the combined stdout and stderr, captured verbatim
	Output []byte
	// TimedOut is set when the command exceeded the per-command timeout
	TimedOut bool
	// Err is set when the command could not be started or timed out.
	// A clean non-zero exit leaves Err nil; ExitStatus carries the signal.
	Err error
}

// Failed reports whether the command failed for any reason
func (r Record) Failed() bool {
	return r.Err != nil || r.ExitStatus != 0
}

// MonitorStatus represents the state of a collection run
type MonitorStatus string

const (
	MonitorStatusIdle     MonitorStatus = "idle"
	MonitorStatusRunning  MonitorStatus = "running"
	MonitorStatusFinished MonitorStatus = "finished"
	MonitorStatusFailed   MonitorStatus = "failed"
)

// CollectionConfig represents configuration for a collection run.
// It is resolved once at startup and immutable for the run.
type CollectionConfig struct {
	// Interval between cycle starts
	Interval time.Duration
	// Duration of the whole run. Zero means a single cycle.
	Duration time.Duration
	// CommandTimeout bounds each external command. Zero disables the bound.
	CommandTimeout time.Duration
	// LogDir is the directory the log file is created in
	LogDir string
	// LogPath overrides the derived log file path when set
	LogPath string
	// Platform selects the command table
	Platform Platform
	// NodeName is recorded in the session header
	NodeName string
	// DebugRecords mirrors record metadata into the structured log
	DebugRecords bool
}

// DefaultCollectionConfig returns a default configuration matching the
// historical script constants.
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Interval:       10 * time.Second,
		Duration:       60 * time.Second,
		CommandTimeout: 60 * time.Second,
		LogDir:         os.TempDir(),
		Platform:       Platform(runtime.GOOS),
	}
}

// ApplyDefaults fills in zero values with defaults
func (c *CollectionConfig) ApplyDefaults() {
	defaults := DefaultCollectionConfig()

	if c.Interval == 0 {
		c.Interval = defaults.Interval
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = defaults.CommandTimeout
	}
	if c.LogDir == "" {
		c.LogDir = defaults.LogDir
	}
	if c.Platform == "" {
		c.Platform = defaults.Platform
	}
}

// Validate ensures the configuration can drive at least a bounded run.
// Duration zero is allowed and produces exactly one cycle.
func (c *CollectionConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", c.Duration)
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command timeout must not be negative, got %v", c.CommandTimeout)
	}
	if c.LogPath == "" && c.LogDir == "" {
		return fmt.Errorf("either LogPath or LogDir must be set")
	}
	return nil
}

// LogFilePath returns the resolved log file path: LogPath when set, otherwise
// the historical <log-dir>/<Platform>_Perf_Monitor_<pid>.log pattern.
func (c *CollectionConfig) LogFilePath() string {
	if c.LogPath != "" {
		return c.LogPath
	}
	prefix, ok := logFilePrefixes[c.Platform]
	if !ok {
		prefix = string(c.Platform)
	}
	return filepath.Join(c.LogDir, fmt.Sprintf("%s_Perf_Monitor_%d.log", prefix, os.Getpid()))
}
