package performance

import (
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ResourceMonitor reports the resource usage of the current process since
// it was created.
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
}

// ResourceUsage contains resource usage information
type ResourceUsage struct {
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryRSS      uint64  `json:"memory_rss_bytes"`
	HeapAlloc      uint64  `json:"heap_alloc_bytes"`
	GCCount        uint32  `json:"gc_count"`
	GoroutineCount int     `json:"goroutines"`
	ThreadCount    int32   `json:"threads"`
}

// NewResourceMonitor creates a resource monitor for this process
func NewResourceMonitor() *ResourceMonitor {
	rm := &ResourceMonitor{startTime: time.Now()}
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return rm
	}
	rm.process = proc
	if t, err := proc.Times(); err == nil {
		rm.startCPUTime = t.Total()
	}
	return rm
}

// Usage returns current resource usage. CPU percent is averaged over the
// monitor's lifetime and may exceed 100 on multi-core runs.
func (rm *ResourceMonitor) Usage() ResourceUsage {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	usage := ResourceUsage{
		HeapAlloc:      ms.HeapAlloc,
		GCCount:        ms.NumGC,
		GoroutineCount: runtime.NumGoroutine(),
	}
	if rm.process == nil {
		return usage
	}

	if t, err := rm.process.Times(); err == nil {
		if elapsed := time.Since(rm.startTime).Seconds(); elapsed > 0 {
			usage.CPUPercent = (t.Total() - rm.startCPUTime) / elapsed * 100
		}
	}
	if mi, err := rm.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = mi.RSS
	}
	usage.ThreadCount, _ = rm.process.NumThreads()
	return usage
}

// LatencyTracker collects duration samples and reports percentiles
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
}

// NewLatencyTracker creates a latency tracker
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{samples: make([]time.Duration, 0, 64)}
}

// Record records a latency sample
func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	lt.samples = append(lt.samples, d)
	lt.mu.Unlock()
}

// LatencyStats summarizes recorded samples
type LatencyStats struct {
	Count int           `json:"count"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
	Mean  time.Duration `json:"mean_ns"`
	P50   time.Duration `json:"p50_ns"`
	P95   time.Duration `json:"p95_ns"`
}

// Stats returns the summary of all samples; zero when none were recorded.
func (lt *LatencyTracker) Stats() LatencyStats {
	lt.mu.Lock()
	sorted := make([]time.Duration, len(lt.samples))
	copy(sorted, lt.samples)
	lt.mu.Unlock()

	if len(sorted) == 0 {
		return LatencyStats{}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return LatencyStats{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  total / time.Duration(len(sorted)),
		P50:   sorted[len(sorted)*50/100],
		P95:   sorted[len(sorted)*95/100],
	}
}

// Measure runs fn runs times, recording each duration. It stops at the first
// error and returns the stats gathered so far.
func Measure(runs int, fn func() error) (LatencyStats, error) {
	lt := NewLatencyTracker()
	for i := 0; i < runs; i++ {
		start := time.Now()
		if err := fn(); err != nil {
			return lt.Stats(), err
		}
		lt.Record(time.Since(start))
	}
	return lt.Stats(), nil
}
