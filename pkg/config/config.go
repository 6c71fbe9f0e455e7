package config

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// FeatureConfig is the single configuration structure for a feature run.
// Sections mirror the CLI: what to compute, where to read and write,
// and how the run is observed.
type FeatureConfig struct {
	// Name identifies the run in logs and reports
	Name string `yaml:"name" json:"name"`

	// Depth configures the depth feature kernel and its driver
	Depth DepthConfig `yaml:"depth" json:"depth"`

	// Input describes the table being read
	Input InputConfig `yaml:"input" json:"input"`

	// Output describes where derived features are written
	Output OutputConfig `yaml:"output" json:"output"`

	// Observability settings for logs, metrics and traces
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// DepthConfig holds the threshold list and worker settings.
type DepthConfig struct {
	// Thresholds are the cumulative depth values, sorted ascending
	Thresholds []float64 `yaml:"thresholds" json:"thresholds"`
	// MaxWorkers bounds the worker pool; nil means min(GOMAXPROCS, batches)
	MaxWorkers *int `yaml:"max_workers,omitempty" json:"max_workers,omitempty"`
}

// InputConfig describes the input table.
type InputConfig struct {
	// Path to the input file
	Path string `yaml:"path" json:"path"`
	// Format overrides extension based detection (arrow, arrows, parquet, csv, avro)
	Format string `yaml:"format" json:"format"`
	// BatchRows re-chunks the input into batches of this many rows (0 keeps file batches)
	BatchRows int `yaml:"batch_rows" json:"batch_rows"`
	// Compression of a CSV input stream (none, gzip, zstd, lz4, snappy, s2)
	Compression string `yaml:"compression" json:"compression"`
}

// OutputConfig describes the output table.
type OutputConfig struct {
	// Path to the output file
	Path string `yaml:"path" json:"path"`
	// Format overrides extension based detection
	Format string `yaml:"format" json:"format"`
	// Compression codec; meaning depends on the format
	Compression string `yaml:"compression" json:"compression"`
}

// ObservabilityConfig contains logging, metrics and tracing settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding selects json or console output
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// EnableMetrics activates the prometheus collector
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// MetricsNamespace prefixes every metric name
	MetricsNamespace string `yaml:"metrics_namespace" json:"metrics_namespace"`
	// EnableTracing activates OpenTelemetry spans written to stdout
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
	// ReportInterval is how often long runs log progress (0 disables)
	ReportInterval time.Duration `yaml:"report_interval" json:"report_interval"`
}

// NewFeatureConfig creates a FeatureConfig with defaults suitable for local runs.
//
// Example:
//
//	cfg := config.NewFeatureConfig("book-depth")
//	cfg.Depth.Thresholds = []float64{15, 40}
func NewFeatureConfig(name string) *FeatureConfig {
	return &FeatureConfig{
		Name: name,
		Depth: DepthConfig{
			Thresholds: []float64{},
		},
		Input: InputConfig{
			Compression: "none",
		},
		Output: OutputConfig{
			Compression: "none",
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogEncoding:       "json",
			EnableMetrics:     true,
			MetricsNamespace:  "arrowfeat",
			EnableTracing:     false,
			TracingSampleRate: 1.0,
		},
	}
}

// Validate checks required fields and ranges. Errors are ErrorTypeConfig.
func (c *FeatureConfig) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "name is required")
	}
	if err := c.Depth.Validate(); err != nil {
		return err
	}
	if c.Input.BatchRows < 0 {
		return errors.New(errors.ErrorTypeConfig, "input.batch_rows cannot be negative")
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return errors.New(errors.ErrorTypeConfig, "observability.tracing_sample_rate must be within [0, 1]")
	}
	return nil
}

// Validate checks the threshold list and worker count.
func (d *DepthConfig) Validate() error {
	if len(d.Thresholds) == 0 {
		return errors.New(errors.ErrorTypeConfig, "depth.thresholds must not be empty")
	}
	for i, v := range d.Thresholds {
		if math.IsNaN(v) {
			return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("depth.thresholds[%d] is NaN", i))
		}
	}
	if !sort.Float64sAreSorted(d.Thresholds) {
		return errors.New(errors.ErrorTypeConfig, "depth.thresholds must be sorted ascending")
	}
	if d.MaxWorkers != nil && *d.MaxWorkers <= 0 {
		return errors.New(errors.ErrorTypeConfig, "depth.max_workers must be positive").
			WithDetail("max_workers", *d.MaxWorkers)
	}
	return nil
}

// Workers returns the configured worker count and whether one was set.
func (d *DepthConfig) Workers() (int, bool) {
	if d.MaxWorkers == nil {
		return 0, false
	}
	return *d.MaxWorkers, true
}
