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
	perfmon.Register(perfmon.PlatformAIX, aixTable)
}

// aixTable collects AIX diagnostics: OS level and system attributes, LPAR
// details, vmstat/mpstat/svmon samples, physical and logical volume layout,
// adapter statistics, paging spaces and the system error report.
//
// Several commands (pmcycles, lparstat, entstat, errpt -a) need elevated
// privileges; the engine does not escalate, it records the refusal.
var aixTable = perfmon.Table{
	{Label: "system_info", Argv: []string{"uname", "-a"}},
	{Label: "os_level", Argv: []string{"oslevel", "-s"}},
	{Label: "system_attributes", Argv: []string{"lsattr", "-El", "sys0"}},
	{Label: "processor_cycles", Argv: []string{"pmcycles", "-d"}, Optional: true},
	{Label: "lpar_info", Argv: []string{"lparstat", "-i"}, Optional: true},
	{Label: "vm_stat", Argv: []string{"vmstat", "1", "3"}},
	{Label: "cpu_stat", Argv: []string{"mpstat", "1", "3"}, Optional: true},
	{Label: "memory_affinity", Argv: []string{"sh", "-c", "svmon -G -O affinity=on | head -n 20"}, Optional: true},
	{Label: "physical_volumes", Argv: []string{"lspv"}},
	{Label: "volume_groups", Argv: []string{"lsvg"}, Optional: true},
	{Label: "net_stats", Argv: []string{"netstat", "-v"}},
	{Label: "ethernet_stats", Argv: []string{"entstat", "-d", "ent0"}, Optional: true},
	{Label: "interface_config", Argv: []string{"ifconfig", "-a"}},
	{Label: "processes", Argv: []string{"ps", "-ef"}},
	{Label: "memory_global", Argv: []string{"svmon", "-G"}, Optional: true},
	{Label: "memory_by_process", Argv: []string{"sh", "-c", "svmon -P | head -n 20"}, Optional: true},
	{Label: "paging_spaces", Argv: []string{"lsps", "-a"}},
	{Label: "vm_counters", Argv: []string{"vmstat", "-s"}},
	{Label: "filesystems", Argv: []string{"lsfs"}},
	{Label: "nfs_server_stats", Argv: []string{"nfsstat", "-s"}, Optional: true},
	{Label: "nfs_client_stats", Argv: []string{"nfsstat", "-c"}, Optional: true},
	{Label: "mounts", Argv: []string{"mount"}},
	{Label: "error_report", Argv: []string{"errpt", "-a"}, Optional: true},
}
