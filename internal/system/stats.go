package system

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a point-in-time view of the machine, attached to job metadata.
type HostStats struct {
	Hostname       string  `json:"hostname"`
	Platform       string  `json:"platform"`
	LogicalCPUs    int     `json:"logicalCpus"`
	Load1          float64 `json:"load1"`
	MemTotalMB     uint64  `json:"memTotalMb"`
	MemAvailableMB uint64  `json:"memAvailableMb"`
	MemUsedPercent float64 `json:"memUsedPercent"`
}

// Snapshot collects host stats. Probes that fail leave their fields zero.
func Snapshot(ctx context.Context) HostStats {
	var s HostStats
	if info, err := host.InfoWithContext(ctx); err == nil {
		s.Hostname = info.Hostname
		s.Platform = info.Platform
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.LogicalCPUs = n
	} else {
		s.LogicalCPUs = runtime.NumCPU()
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		s.Load1 = avg.Load1
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemTotalMB = vm.Total >> 20
		s.MemAvailableMB = vm.Available >> 20
		s.MemUsedPercent = vm.UsedPercent
	}
	return s
}

// perWorkerMB is a rough budget for one render worker: frame buffer, PNG
// encoder state and font faces at 1080x1920.
const perWorkerMB = 64

// RecommendedWorkers sizes the frame worker pool from CPU count, capped so
// workers fit into available memory.
func RecommendedWorkers(s HostStats) int {
	n := s.LogicalCPUs
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if s.MemAvailableMB > 0 {
		if byMem := int(s.MemAvailableMB / perWorkerMB); byMem < n {
			n = byMem
		}
	}
	return max(n, 1)
}
