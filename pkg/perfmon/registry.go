// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfmon

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

var (
	registry       = make(map[Platform]Table)
	registryLogger = stdr.New(log.New(os.Stderr, "[perfmon.registry] ", log.LstdFlags))
)

// Register adds a command table to the global registry for platform.
//
// This function is called during package initialization (in init() functions
// of the tables package) so that tables are available before a Monitor is
// built. It panics if the table is invalid or if a table for the given
// platform is already registered.
func Register(platform Platform, table Table) {
	if _, exists := registry[platform]; exists {
		panic(fmt.Sprintf("Command table for %s already registered", platform))
	}
	if err := table.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid command table for %s: %v", platform, err))
	}
	registry[platform] = table
	registryLogger.V(1).Info("Registered command table",
		"platform", platform, "commands", len(table))
}

// GetTable retrieves the command table from the global registry for platform
func GetTable(platform Platform) (Table, error) {
	table, exists := registry[platform]
	if !exists {
		return nil, fmt.Errorf("no command table registered for platform %q (available: %v)",
			platform, Platforms())
	}
	// Return a copy so callers can merge/filter without mutating the registry
	out := make(Table, len(table))
	copy(out, table)
	return out, nil
}

// Platforms returns the platforms with registered tables, sorted
func Platforms() []Platform {
	platforms := make([]Platform, 0, len(registry))
	for platform := range registry {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}

// SetRegistryLogger allows setting a custom logger for the registry.
// This should be called before any tables are registered.
func SetRegistryLogger(logger logr.Logger) {
	registryLogger = logger
}
