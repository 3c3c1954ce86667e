// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package environment provides utilities for extracting configuration from environment variables
package environment

import (
	"os"
	"strings"
)

// GetNodeName returns the node name from NODE_NAME environment variable,
// falling back to hostname if not set.
func GetNodeName() (string, error) {
	nodeName := os.Getenv("NODE_NAME")
	if nodeName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return "", err
		}
		nodeName = hostname
	}
	return nodeName, nil
}

// GetLogDir returns the log directory override from PERFMON_LOG_DIR
// environment variable. Returns empty string if not set.
func GetLogDir() string {
	return os.Getenv("PERFMON_LOG_DIR")
}

// GetPlatform returns the platform override from PERFMON_PLATFORM environment
// variable. Returns empty string if not set.
func GetPlatform() string {
	return os.Getenv("PERFMON_PLATFORM")
}

// DebugRecords reports whether PERFMON_DEBUG requests mirroring record
// metadata into the structured log.
func DebugRecords() bool {
	switch strings.ToLower(os.Getenv("PERFMON_DEBUG")) {
	case "1", "true", "yes":
		return true
	}
	return false
}
