package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
	"github.com/ajitpratap0/arrowfeat/pkg/metrics"
	"github.com/ajitpratap0/arrowfeat/pkg/observability"
)

// Driver applies a BatchFunc to every batch of an input sequence in parallel
// and reassembles the outputs in input order.
type Driver struct {
	name        string
	maxWorkers  *int
	parallelism func() int
	logger      *zap.Logger
	metrics     *metrics.Collector
	tracer      trace.Tracer

	// Performance metrics
	batchesProcessed int64
	processingTime   int64 // nanoseconds
}

// NewDriver creates a driver. A zero Config is valid.
func NewDriver(cfg Config) *Driver {
	if cfg.Name == "" {
		cfg.Name = "kernel"
	}
	if cfg.Parallelism == nil {
		cfg.Parallelism = func() int { return runtime.GOMAXPROCS(0) }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Driver{
		name:        cfg.Name,
		maxWorkers:  cfg.MaxWorkers,
		parallelism: cfg.Parallelism,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		tracer:      cfg.Tracer,
	}
}

// Workers returns the effective worker count for n batches.
func (d *Driver) Workers(n int) (int, error) {
	if d.maxWorkers == nil {
		workers := d.parallelism()
		if workers < 1 {
			workers = 1
		}
		return min(workers, n), nil
	}

	requested := *d.maxWorkers
	if requested <= 0 {
		return 0, errors.Newf(errors.ErrorTypeConfig, "max_workers must be positive, got %d", requested).
			WithDetail("max_workers", requested)
	}
	return min(requested, n), nil
}

// Plan returns the ranges Run would dispatch for n batches.
func (d *Driver) Plan(n int) ([]Range, error) {
	if n == 0 {
		return nil, errors.New(errors.ErrorTypeEmptyInput, "at least one batch is required")
	}
	workers, err := d.Workers(n)
	if err != nil {
		return nil, err
	}
	return Partition(n, workers), nil
}

// Run applies fn to every batch and returns the outputs as one table in input
// order. It blocks until every worker has finished. If any batch fails, the
// failure with the lowest worker index is returned annotated with its batch
// index, the outputs already produced are released and no table is returned.
func (d *Driver) Run(ctx context.Context, batches []columnar.Batch, fn BatchFunc) (*columnar.Table, error) {
	ranges, err := d.Plan(len(batches))
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, d.tracer, d.name+".run")
	defer span.End()
	span.SetAttribute("batches", len(batches))
	span.SetAttribute("workers", len(ranges))

	d.logger.Debug("dispatching batches",
		zap.String("kernel", d.name),
		zap.Int("num_batches", len(batches)),
		zap.Int("num_workers", len(ranges)))

	slots := make([]columnar.Batch, len(batches))
	results := make([]workerResult, len(ranges))

	var wg sync.WaitGroup
	for w, r := range ranges {
		wg.Add(1)
		go func(w int, r Range) {
			defer wg.Done()
			results[w] = d.runWorker(ctx, w, r, batches, slots, fn)
		}(w, r)
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			err := errors.Wrap(res.err, errors.TypeOf(res.err), fmt.Sprintf("batch %d failed", res.failed)).
				WithDetail("batch_index", res.failed)
			d.metrics.ObserveRun(d.name, err)
			span.RecordResult(err)
			d.logger.Error("batch failed",
				zap.String("kernel", d.name),
				zap.Int("batch_index", res.failed),
				zap.Error(res.err))
			columnar.ReleaseBatches(slots...)
			return nil, err
		}
	}

	table, err := columnar.NewTable(slots)
	d.metrics.ObserveRun(d.name, err)
	span.RecordResult(err)
	if err != nil {
		columnar.ReleaseBatches(slots...)
		return nil, err
	}

	d.logger.Debug("batches merged",
		zap.String("kernel", d.name),
		zap.Int("num_rows", table.NumRows()),
		zap.Duration("avg_processing_time", d.AvgProcessingTime()))
	return table, nil
}

// runWorker processes its range sequentially and stops at the first failure.
func (d *Driver) runWorker(ctx context.Context, id int, r Range, batches, slots []columnar.Batch, fn BatchFunc) (res workerResult) {
	d.metrics.WorkerStarted()
	defer d.metrics.WorkerDone()

	res.failed = -1
	current := r.Start
	defer func() {
		if p := recover(); p != nil {
			res = workerResult{
				failed: current,
				err:    errors.Newf(errors.ErrorTypeInternal, "kernel panicked: %v", p),
			}
		}
	}()

	d.logger.Debug("worker started",
		zap.String("kernel", d.name),
		zap.Int("worker_id", id),
		zap.Int("start", r.Start),
		zap.Int("end", r.End))

	for ; current < r.End; current++ {
		idx := current
		batch := batches[idx]
		start := time.Now()

		err := observability.TraceBatch(ctx, d.tracer, d.name, idx, batch.NumRows(), func(ctx context.Context) error {
			out, err := fn(ctx, batch)
			if err != nil {
				return err
			}
			slots[idx] = out
			return nil
		})

		elapsed := time.Since(start)
		atomic.AddInt64(&d.batchesProcessed, 1)
		atomic.AddInt64(&d.processingTime, elapsed.Nanoseconds())
		d.metrics.ObserveBatch(d.name, batch.NumRows(), elapsed, err)

		if err != nil {
			return workerResult{failed: idx, err: err}
		}
	}
	return res
}

// BatchesProcessed returns the number of kernel invocations since creation
func (d *Driver) BatchesProcessed() int64 {
	return atomic.LoadInt64(&d.batchesProcessed)
}

// AvgProcessingTime returns the mean kernel latency per batch
func (d *Driver) AvgProcessingTime() time.Duration {
	processed := atomic.LoadInt64(&d.batchesProcessed)
	if processed == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&d.processingTime) / processed)
}
