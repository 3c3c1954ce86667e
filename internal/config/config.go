// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package config loads the optional perfmon run configuration file.
//
// The file is YAML and every field is optional; values set in it override the
// built-in defaults but are themselves overridden by environment variables
// and flags. The configuration is resolved once at startup and is immutable
// for the rest of the run.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/antimetal/perfmon/pkg/perfmon"
)

// Command mirrors perfmon.CommandSpec for the config file
type Command struct {
	Label    string   `yaml:"label"`
	Argv     []string `yaml:"argv"`
	Optional bool     `yaml:"optional"`
}

// File is the on-disk run configuration
type File struct {
	IntervalSeconds       int    `yaml:"interval_seconds"`
	DurationSeconds       int    `yaml:"duration_seconds"`
	CommandTimeoutSeconds int    `yaml:"command_timeout_seconds"`
	LogDir                string `yaml:"log_dir"`
	LogPath               string `yaml:"log_path"`
	Platform              string `yaml:"platform"`
	DebugRecords          bool   `yaml:"debug_records"`
	// ExtraCommands are appended to the platform table, in order
	ExtraCommands []Command `yaml:"extra_commands"`
	// DisabledCommands removes table entries by label
	DisabledCommands []string `yaml:"disabled_commands"`
}

// Load reads and parses the configuration file at path. Unknown fields are
// rejected so a typoed key fails loudly instead of silently doing nothing.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	var file File
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &file, nil
}

// Apply copies the file's set fields onto cfg. Zero values are left alone so
// defaults and lower-precedence sources survive.
func (f *File) Apply(cfg *perfmon.CollectionConfig) {
	if f.IntervalSeconds != 0 {
		cfg.Interval = time.Duration(f.IntervalSeconds) * time.Second
	}
	if f.DurationSeconds != 0 {
		cfg.Duration = time.Duration(f.DurationSeconds) * time.Second
	}
	if f.CommandTimeoutSeconds != 0 {
		cfg.CommandTimeout = time.Duration(f.CommandTimeoutSeconds) * time.Second
	}
	if f.LogDir != "" {
		cfg.LogDir = f.LogDir
	}
	if f.LogPath != "" {
		cfg.LogPath = f.LogPath
	}
	if f.Platform != "" {
		cfg.Platform = perfmon.Platform(f.Platform)
	}
	if f.DebugRecords {
		cfg.DebugRecords = true
	}
}

// ApplyTable removes disabled commands from table and appends the extras.
// An extra command reusing an existing label is an error.
func (f *File) ApplyTable(table perfmon.Table) (perfmon.Table, error) {
	out := table.Without(f.DisabledCommands...)

	extras := make([]perfmon.CommandSpec, 0, len(f.ExtraCommands))
	for _, cmd := range f.ExtraCommands {
		extras = append(extras, perfmon.CommandSpec{
			Label:    cmd.Label,
			Argv:     cmd.Argv,
			Optional: cmd.Optional,
		})
	}

	out, err := out.Merge(extras...)
	if err != nil {
		return nil, fmt.Errorf("invalid extra_commands: %w", err)
	}
	return out, nil
}
