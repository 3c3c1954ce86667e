// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package perfmon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/perfmon/pkg/perfmon"
)

// The registry is global process state, so all registration tests share one
// test function to keep ordering explicit.
func TestRegistry(t *testing.T) {
	table := perfmon.Table{
		{Label: "system_info", Argv: []string{"uname", "-a"}},
	}

	perfmon.Register("testos", table)

	got, err := perfmon.GetTable("testos")
	require.NoError(t, err)
	assert.Equal(t, []string{"system_info"}, got.Labels())

	// The registry hands out copies
	got[0].Label = "mutated"
	again, err := perfmon.GetTable("testos")
	require.NoError(t, err)
	assert.Equal(t, "system_info", again[0].Label)

	assert.Contains(t, perfmon.Platforms(), perfmon.Platform("testos"))

	_, err = perfmon.GetTable("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no command table registered for platform "unknown"`)

	assert.Panics(t, func() {
		perfmon.Register("testos", table)
	}, "duplicate platform registration must panic")

	assert.Panics(t, func() {
		perfmon.Register("badtable", perfmon.Table{{Label: ""}})
	}, "invalid table registration must panic")
}
