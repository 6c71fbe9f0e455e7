package features

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowfeat/internal/pipeline"
	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/metrics"
	"github.com/ajitpratap0/arrowfeat/pkg/observability"
)

// Kernel names used for logs, metrics and spans
const (
	KernelDepth    = "depth"
	KernelOddCount = "odd_count"
)

// TableOption configures a table-level call
type TableOption func(*tableOptions)

type tableOptions struct {
	pipeline pipeline.Config
	alloc    columnar.Allocator
}

// WithMaxWorkers bounds the worker pool. n must be positive; it is clamped to
// the number of batches.
func WithMaxWorkers(n int) TableOption {
	return func(o *tableOptions) { o.pipeline.MaxWorkers = &n }
}

// WithParallelism overrides how available parallelism is measured when no
// worker bound is given.
func WithParallelism(fn func() int) TableOption {
	return func(o *tableOptions) { o.pipeline.Parallelism = fn }
}

// WithLogger sets the logger used by the driver
func WithLogger(l *zap.Logger) TableOption {
	return func(o *tableOptions) { o.pipeline.Logger = l }
}

// WithMetrics records per-batch metrics into c
func WithMetrics(c *metrics.Collector) TableOption {
	return func(o *tableOptions) { o.pipeline.Metrics = c }
}

// WithTracer traces the run and every batch on t
func WithTracer(t trace.Tracer) TableOption {
	return func(o *tableOptions) { o.pipeline.Tracer = t }
}

// WithAllocator sets the allocator output columns are built with
func WithAllocator(a columnar.Allocator) TableOption {
	return func(o *tableOptions) { o.alloc = a }
}

func newTableOptions(kernel string, opts []TableOption) *tableOptions {
	o := &tableOptions{alloc: columnar.NewMemAllocator()}
	for _, opt := range opts {
		opt(o)
	}
	o.pipeline.Name = kernel
	return o
}

// DepthTable validates thresholds once, then computes DepthFeature for every
// batch on a bounded worker pool. The result has one batch per input batch in
// input order. Any failure fails the whole call.
func DepthTable(ctx context.Context, batches []columnar.Batch, thresholds Thresholds, opts ...TableOption) (*columnar.Table, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	o := newTableOptions(KernelDepth, opts)

	ctx, span := observability.StartSpan(ctx, o.pipeline.Tracer, "depth.table")
	defer span.End()
	span.SetAttribute("thresholds", []float64(thresholds))

	table, err := pipeline.NewDriver(o.pipeline).Run(ctx, batches, func(_ context.Context, b columnar.Batch) (columnar.Batch, error) {
		return DepthFeature(b, thresholds, o.alloc)
	})
	span.RecordResult(err)
	return table, err
}

// OddCountTable computes OddCountBatch for every batch on a bounded worker pool.
func OddCountTable(ctx context.Context, batches []columnar.Batch, opts ...TableOption) (*columnar.Table, error) {
	o := newTableOptions(KernelOddCount, opts)

	ctx, span := observability.StartSpan(ctx, o.pipeline.Tracer, "odd_count.table")
	defer span.End()

	table, err := pipeline.NewDriver(o.pipeline).Run(ctx, batches, func(_ context.Context, b columnar.Batch) (columnar.Batch, error) {
		return OddCountBatch(b, o.alloc)
	})
	span.RecordResult(err)
	return table, err
}
