// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/antimetal/perfmon/internal/config"
	"github.com/antimetal/perfmon/pkg/config/environment"
	"github.com/antimetal/perfmon/pkg/perfmon"
	_ "github.com/antimetal/perfmon/pkg/perfmon/tables"
)

var (
	// CLI Options (alphabetical order)
	commandTimeout time.Duration
	configPath     string
	debugRecords   bool
	duration       time.Duration
	interval       time.Duration
	logDir         string
	logPath        string
	platform       string
	verbose        bool
)

func init() {
	flag.DurationVar(&commandTimeout, "command-timeout", 60*time.Second,
		"Maximum time a single diagnostic command may run. Set to 0 to disable the bound.")
	flag.StringVar(&configPath, "config", "",
		"Path to an optional YAML run configuration file")
	flag.BoolVar(&debugRecords, "debug-records", false,
		"Mirror record metadata into the structured log")
	flag.DurationVar(&duration, "duration", 60*time.Second,
		"Total run duration (e.g. 60s, 15m). 0 collects a single cycle.")
	flag.DurationVar(&interval, "interval", 10*time.Second,
		"Interval between collection cycles")
	flag.StringVar(&logDir, "log-dir", "",
		"Directory for the log file (default: system temp directory)")
	flag.StringVar(&logPath, "log-path", "",
		"Exact log file path; overrides -log-dir and the default name pattern")
	flag.StringVar(&platform, "platform", "",
		"Command table to collect with (linux, darwin, aix; default: current OS)")
	flag.BoolVar(&verbose, "verbose", false,
		"Enable verbose logging")
}

func main() {
	flag.Parse()

	logger := newLogger(verbose)
	setupLog := logger.WithName("setup")

	cfg, table, err := resolveConfig(setupLog)
	if err != nil {
		setupLog.Error(err, "unable to resolve run configuration")
		os.Exit(1)
	}

	sink, path, err := buildSink(logger, cfg)
	if err != nil {
		setupLog.Error(err, "unable to open log file")
		os.Exit(1)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			setupLog.Error(err, "unable to close log file")
		}
	}()

	monitor, err := perfmon.NewMonitor(logger, *cfg, table, sink)
	if err != nil {
		setupLog.Error(err, "unable to create monitor")
		os.Exit(1)
	}

	// The run deadline is owned by the monitor; ctx only carries operator
	// termination, the historical SIGINT/SIGTERM/SIGHUP traps.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		setupLog.Info("received signal, stopping collection", "signal", sig.String())
		cancel()
	}()

	if err := monitor.Run(ctx); err != nil {
		setupLog.Error(err, "collection run failed", "log", path)
		os.Exit(1)
	}

	setupLog.Info("collection complete", "cycles", monitor.Cycles(), "log", path)
}

func newLogger(verbose bool) logr.Logger {
	var zapLog *zap.Logger
	var err error
	if verbose {
		zapLog, err = zap.NewDevelopment()
	} else {
		zapLog, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	return zapr.NewLogger(zapLog)
}

// resolveConfig builds the immutable run configuration and command table.
// Precedence, lowest to highest: defaults, config file, environment, flags.
func resolveConfig(setupLog logr.Logger) (*perfmon.CollectionConfig, perfmon.Table, error) {
	cfg := perfmon.DefaultCollectionConfig()

	nodeName, err := environment.GetNodeName()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to determine node name: %w", err)
	}
	cfg.NodeName = nodeName

	// Config file
	var file *config.File
	if configPath != "" {
		file, err = config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		file.Apply(&cfg)
		setupLog.Info("loaded configuration file", "path", configPath)
	}

	// Environment overrides the file
	if d := environment.GetLogDir(); d != "" {
		cfg.LogDir = d
	}
	if p := environment.GetPlatform(); p != "" {
		cfg.Platform = perfmon.Platform(p)
	}
	if environment.DebugRecords() {
		cfg.DebugRecords = true
	}

	// Flags, only those explicitly set
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "command-timeout":
			cfg.CommandTimeout = commandTimeout
		case "debug-records":
			cfg.DebugRecords = debugRecords
		case "duration":
			cfg.Duration = duration
		case "interval":
			cfg.Interval = interval
		case "log-dir":
			cfg.LogDir = logDir
		case "log-path":
			cfg.LogPath = logPath
		case "platform":
			cfg.Platform = perfmon.Platform(platform)
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	table, err := perfmon.GetTable(cfg.Platform)
	if err != nil {
		return nil, nil, err
	}
	if file != nil {
		table, err = file.ApplyTable(table)
		if err != nil {
			return nil, nil, err
		}
	}

	return &cfg, table, nil
}

func buildSink(logger logr.Logger, cfg *perfmon.CollectionConfig) (perfmon.RecordSink, string, error) {
	path := cfg.LogFilePath()
	fileSink, err := perfmon.NewFileSink(path)
	if err != nil {
		return nil, path, err
	}
	if cfg.DebugRecords {
		return perfmon.NewMultiSink(fileSink, perfmon.NewDebugSink(logger)), path, nil
	}
	return fileSink, path, nil
}
