// Package metrics provides Prometheus instrumentation for arrowfeat kernels
// and the batch-parallel driver.
//
// # Overview
//
// Each Collector owns a private registry so that several drivers (or several
// tests) can coexist in one process without duplicate registration panics.
// The CLI gathers the registry at the end of a run and prints a summary.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("arrowfeat")
//	timer := metrics.NewTimer()
//	out, err := kernel(batch)
//	collector.ObserveBatch("depth", out.NumRows(), timer.Stop(), err)
//
// # Metric Types
//
// Counter: batches and rows processed, by kernel and status
// Gauge: workers currently running
// Histogram: per-batch kernel latency in seconds
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// StatusSuccess labels a batch whose kernel returned no error
	StatusSuccess = "success"
	// StatusFailure labels a batch whose kernel failed
	StatusFailure = "failure"
)

// Collector groups the metrics recorded by one driver.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry         *prometheus.Registry
	batchesProcessed *prometheus.CounterVec   // Batches processed by kernel/status
	rowsProcessed    *prometheus.CounterVec   // Input rows processed by kernel
	batchLatency     *prometheus.HistogramVec // Kernel latency per batch
	activeWorkers    prometheus.Gauge         // Workers currently running
	runsTotal        *prometheus.CounterVec   // Driver runs by status
	startTime        time.Time

	mu      sync.Mutex
	summary Summary
}

// Summary is a point-in-time view of what a collector has observed.
type Summary struct {
	Batches       int64         `json:"batches"`
	FailedBatches int64         `json:"failed_batches"`
	Rows          int64         `json:"rows"`
	KernelTime    time.Duration `json:"kernel_time_ns"`
	Uptime        time.Duration `json:"uptime_ns"`
}

// NewCollector creates a collector whose metric names are prefixed by namespace.
//
// Example:
//
//	collector := metrics.NewCollector("arrowfeat")
//	families, err := collector.Registry().Gather()
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		batchesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_processed_total",
				Help:      "Total number of record batches passed through a kernel",
			},
			[]string{"kernel", "status"},
		),
		rowsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_processed_total",
				Help:      "Total number of input rows processed by a kernel",
			},
			[]string{"kernel"},
		),
		batchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_latency_seconds",
				Help:      "Kernel latency per record batch",
				Buckets: []float64{
					1e-5, // 10μs - tiny batches
					1e-4, // 100μs
					1e-3, // 1ms
					1e-2, // 10ms - typical 10k row batch
					1e-1, // 100ms
					1,    // 1s - very wide books
				},
			},
			[]string{"kernel"},
		),
		activeWorkers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_workers",
				Help:      "Number of driver workers currently running",
			},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "driver_runs_total",
				Help:      "Total number of driver runs",
			},
			[]string{"kernel", "status"},
		),
		startTime: time.Now(),
	}
}

// Registry returns the registry holding this collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveBatch records one kernel invocation.
func (c *Collector) ObserveBatch(kernel string, rows int, d time.Duration, err error) {
	if c == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	c.batchesProcessed.WithLabelValues(kernel, status).Inc()
	c.batchLatency.WithLabelValues(kernel).Observe(d.Seconds())
	if err == nil {
		c.rowsProcessed.WithLabelValues(kernel).Add(float64(rows))
	}

	c.mu.Lock()
	c.summary.Batches++
	if err != nil {
		c.summary.FailedBatches++
	} else {
		c.summary.Rows += int64(rows)
	}
	c.summary.KernelTime += d
	c.mu.Unlock()
}

// ObserveRun records the outcome of a whole driver run.
func (c *Collector) ObserveRun(kernel string, err error) {
	if c == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	c.runsTotal.WithLabelValues(kernel, status).Inc()
}

// WorkerStarted increments the active worker gauge.
func (c *Collector) WorkerStarted() {
	if c == nil {
		return
	}
	c.activeWorkers.Inc()
}

// WorkerDone decrements the active worker gauge.
func (c *Collector) WorkerDone() {
	if c == nil {
		return
	}
	c.activeWorkers.Dec()
}

// Summary returns the totals observed so far.
func (c *Collector) Summary() Summary {
	if c == nil {
		return Summary{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.summary
	s.Uptime = time.Since(c.startTime)
	return s
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It can be called
// repeatedly; each call reports the total time since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
