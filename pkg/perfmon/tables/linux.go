// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package tables registers the per-platform diagnostic command tables.
// Importing it for side effects makes the tables available through the
// perfmon registry:
//
//	import _ "github.com/antimetal/perfmon/pkg/perfmon/tables"
//
// Each table is plain data. Entries that need a pipeline wrap themselves in
// "sh -c"; entries whose binaries are routinely absent (nfsstat on hosts
// without NFS, lsb_release on minimal images) are marked Optional so their
// failures are captured quietly.
package tables

import (
	"github.com/antimetal/perfmon/pkg/perfmon"
)

func init() {
	perfmon.Register(perfmon.PlatformLinux, linuxTable)
}

// linuxTable collects kernel, CPU, memory, disk, network, process, NFS and
// syslog diagnostics using the standard Linux toolbox.
var linuxTable = perfmon.Table{
	{Label: "system_info", Argv: []string{"uname", "-a"}},
	{Label: "distro_release", Argv: []string{"lsb_release", "-a"}, Optional: true},
	{Label: "cpu_stat", Argv: []string{"sh", "-c", "head -n 5 /proc/stat"}},
	// iostat ships with sysstat, which isn't installed everywhere; vmstat
	// below covers the gap when it is missing.
	{Label: "disk_io", Argv: []string{"iostat", "-xm", "1", "5"}, Optional: true},
	{Label: "paging", Argv: []string{"vmstat", "1", "5"}},
	{Label: "net_interfaces", Argv: []string{"netstat", "-i"}, Optional: true},
	{Label: "socket_summary", Argv: []string{"ss", "-s"}},
	{Label: "top_processes", Argv: []string{"top", "-b", "-n", "1"}},
	{Label: "open_files", Argv: []string{"lsof"}, Optional: true},
	{Label: "process_tree", Argv: []string{"pstree"}, Optional: true},
	{Label: "disk_usage", Argv: []string{"df", "-h"}},
	{Label: "mounts", Argv: []string{"mount"}},
	{Label: "var_usage", Argv: []string{"du", "-sh", "/var"}},
	{Label: "nfs_server_stats", Argv: []string{"nfsstat", "-s"}, Optional: true},
	{Label: "nfs_client_stats", Argv: []string{"nfsstat", "-c"}, Optional: true},
	// grep exits 1 when no NFS mount is active; that is a useful signal,
	// not an error worth surfacing.
	{Label: "nfs_mounts", Argv: []string{"sh", "-c", "grep nfs /proc/mounts"}, Optional: true},
	{Label: "syslog_tail", Argv: []string{"tail", "-n", "50", "/var/log/syslog"}, Optional: true},
	{Label: "messages_tail", Argv: []string{"tail", "-n", "50", "/var/log/messages"}, Optional: true},
}
