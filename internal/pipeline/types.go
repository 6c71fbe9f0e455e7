// Package pipeline runs a per-batch kernel over an ordered sequence of
// batches on a bounded, statically partitioned worker pool.
package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/metrics"
)

// BatchFunc computes the output batch for one input batch. It must not
// mutate its input and must be safe to call from several goroutines.
type BatchFunc func(ctx context.Context, batch columnar.Batch) (columnar.Batch, error)

// Config configures a Driver
type Config struct {
	// Name labels logs, metrics and spans (e.g. "depth")
	Name string
	// MaxWorkers bounds the pool. nil means min(Parallelism(), batches);
	// otherwise it must be positive and is clamped to the batch count.
	MaxWorkers *int
	// Parallelism reports available parallelism; runtime.GOMAXPROCS(0) when nil
	Parallelism func() int
	Logger      *zap.Logger
	Metrics     *metrics.Collector
	Tracer      trace.Tracer
}

// Range is a half-open [Start, End) range of batch indices owned by one worker
type Range struct {
	Start int
	End   int
}

// Len returns the number of batches in the range
func (r Range) Len() int { return r.End - r.Start }

// workerResult is what a worker reports after the join. failed is -1 when
// every batch in its range succeeded.
type workerResult struct {
	failed int
	err    error
}
