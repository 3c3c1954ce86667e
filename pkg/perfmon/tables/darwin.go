// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package tables

import (
	"github.com/antimetal/perfmon/pkg/perfmon"
)

func init() {
	perfmon.Register(perfmon.PlatformDarwin, darwinTable)
}

// darwinTable collects macOS diagnostics: kernel and OS version, virtual
// memory and CPU sysctls, disk layout and I/O, processes, network interfaces
// and the unified log's recent errors.
var darwinTable = perfmon.Table{
	{Label: "system_info", Argv: []string{"uname", "-a"}},
	{Label: "macos_version", Argv: []string{"sw_vers"}},
	{Label: "vm_stat", Argv: []string{"vm_stat"}},
	{Label: "cpu_info", Argv: []string{"sh", "-c", "sysctl -a | grep machdep.cpu"}},
	{Label: "memory_size", Argv: []string{"sysctl", "-n", "hw.memsize"}},
	{Label: "top_snapshot", Argv: []string{"top", "-l", "1"}},
	{Label: "disk_usage", Argv: []string{"df", "-h"}},
	{Label: "disk_layout", Argv: []string{"diskutil", "list"}},
	{Label: "disk_io", Argv: []string{"iostat", "-Id", "1", "2"}},
	{Label: "processes", Argv: []string{"ps", "aux"}},
	{Label: "top_processes", Argv: []string{"top", "-l", "1", "-n", "10"}},
	{Label: "net_interfaces", Argv: []string{"netstat", "-i"}},
	{Label: "interface_config", Argv: []string{"ifconfig"}},
	{Label: "mounts", Argv: []string{"mount"}},
	{Label: "nfs_stats", Argv: []string{"nfsstat"}, Optional: true},
	// log show scans the unified log; it is slow on busy systems and the
	// per-command timeout bounds it.
	{Label: "error_logs", Argv: []string{"log", "show", "--predicate", `eventMessage contains "error"`, "--info"}, Optional: true},
}
