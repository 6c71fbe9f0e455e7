// Package performance measures the host and the runs the CLI benchmarks:
// hardware snapshot, process resource usage, latency percentiles and pprof
// capture.
package performance

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo is a snapshot of the machine a run executes on
type HostInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	GoVersion     string `json:"go_version"`
	LogicalCPUs   int    `json:"logical_cpus"`
	PhysicalCPUs  int    `json:"physical_cpus"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	CPUModel      string `json:"cpu_model,omitempty"`
	MemTotal      uint64 `json:"mem_total_bytes"`
	MemAvailable  uint64 `json:"mem_available_bytes"`
	NumGoroutines int    `json:"goroutines"`
}

// Host collects a HostInfo. Fields gopsutil cannot read on this platform
// fall back to runtime values or stay zero; the error is never fatal.
func Host(ctx context.Context) HostInfo {
	info := HostInfo{
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		GoVersion:     runtime.Version(),
		LogicalCPUs:   runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		NumGoroutines: runtime.NumGoroutine(),
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		info.LogicalCPUs = n
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.PhysicalCPUs = n
	}
	if stats, err := cpu.InfoWithContext(ctx); err == nil && len(stats) > 0 {
		info.CPUModel = stats[0].ModelName
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemTotal = vm.Total
		info.MemAvailable = vm.Available
	}
	return info
}
