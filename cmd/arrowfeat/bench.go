package main

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowfeat/internal/synth"
	"github.com/ajitpratap0/arrowfeat/pkg/arrowutils"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
	"github.com/ajitpratap0/arrowfeat/pkg/features"
	"github.com/ajitpratap0/arrowfeat/pkg/performance"
)

// benchThresholds are the depth values of the parallel benchmark table
var benchThresholds = []float64{0.1, 0.5, 1.0, 2.0, 5.0}

// benchCase is one worker setting; nil means the driver default
type benchCase struct {
	Name    string `json:"name"`
	Workers *int   `json:"workers,omitempty"`
}

type benchResult struct {
	benchCase
	Latency performance.LatencyStats `json:"latency"`
	Rows    int64                    `json:"rows"`
	Columns int64                    `json:"columns"`
	Speedup float64                  `json:"speedup"`
	Matches bool                     `json:"matches_single_worker"`
}

type benchReport struct {
	Table      synth.Options             `json:"table"`
	Thresholds []float64                 `json:"thresholds"`
	Runs       int                       `json:"runs"`
	Host       performance.HostInfo      `json:"host"`
	Results    []benchResult             `json:"results"`
	Process    performance.ResourceUsage `json:"process"`
}

func defaultBenchCases(workers []int) []benchCase {
	cases := []benchCase{{Name: "default"}}
	for _, w := range workers {
		w := w
		cases = append(cases, benchCase{Name: fmt.Sprintf("%d-workers", w), Workers: &w})
	}
	return cases
}

func newBenchCommand(a *app) *cobra.Command {
	opts := synth.DefaultOptions()
	var (
		runs       int
		workers    []int
		thresholds []float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the depth driver at several worker counts",
		Long: `Generate a synthetic table and extract depth features from it with the
default worker count and each --worker-counts value. Every output is compared
with the single-worker output and the speedup over one worker is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs <= 0 {
				return errors.Newf(errors.ErrorTypeConfig, "runs must be positive, got %d", runs)
			}
			return a.runBench(cmd.Context(), opts, thresholds, runs, defaultBenchCases(workers))
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.Batches, "batches", opts.Batches, "Number of record batches")
	f.IntVar(&opts.RowsPerBatch, "rows", opts.RowsPerBatch, "Rows per batch")
	f.IntVar(&opts.Columns, "columns", opts.Columns, "Number of columns (even)")
	f.Int64Var(&opts.Seed, "seed", 0, "Seed offset for the value generator")
	f.IntVar(&runs, "runs", 3, "Timed runs per worker setting")
	f.IntSliceVar(&workers, "worker-counts", []int{1, 2, 4, 8}, "Worker counts to compare against the default")
	f.Float64SliceVar(&thresholds, flagThresholds, benchThresholds, "Cumulative depth thresholds")
	return cmd
}

func (a *app) runBench(ctx context.Context, opts synth.Options, thresholds []float64, runs int, cases []benchCase) error {
	tbl, err := synth.Table(opts, nil)
	if err != nil {
		return err
	}
	defer tbl.Release()

	monitor := performance.NewResourceMonitor()
	a.log.Info("benchmark table created",
		zap.Int64("rows", tbl.NumRows()),
		zap.Int64("columns", tbl.NumCols()),
		zap.Int("batches", opts.Batches))

	outputs := make([]arrow.Table, len(cases))
	defer func() {
		for _, t := range outputs {
			if t != nil {
				t.Release()
			}
		}
	}()

	results := make([]benchResult, len(cases))
	for i, c := range cases {
		topts := []features.TableOption{features.WithLogger(a.log), features.WithMetrics(a.metrics)}
		if c.Workers != nil {
			topts = append(topts, features.WithMaxWorkers(*c.Workers))
		}

		stats, err := performance.Measure(runs, func() error {
			res, err := arrowutils.ExtractDepthFeatureFromTable(ctx, tbl, thresholds, topts...)
			if err != nil {
				return err
			}
			if outputs[i] != nil {
				outputs[i].Release()
			}
			outputs[i] = res
			return nil
		})
		if err != nil {
			return errors.Wrap(err, errors.TypeOf(err), "benchmark case failed").WithDetail("case", c.Name)
		}

		results[i] = benchResult{
			benchCase: c,
			Latency:   stats,
			Rows:      outputs[i].NumRows(),
			Columns:   outputs[i].NumCols(),
		}
		a.log.Info("benchmark case done", zap.String("case", c.Name), zap.Duration("p50", stats.P50))
	}

	base := singleWorkerCase(cases)
	for i := range results {
		if base < 0 {
			break
		}
		results[i].Matches = tablesEqual(outputs[base], outputs[i])
		if results[i].Latency.P50 > 0 {
			results[i].Speedup = float64(results[base].Latency.P50) / float64(results[i].Latency.P50)
		}
		if !results[i].Matches {
			a.log.Warn("benchmark output differs from single worker output", zap.String("case", results[i].Name))
		}
	}

	return a.report(benchReport{
		Table:      opts,
		Thresholds: thresholds,
		Runs:       runs,
		Host:       performance.Host(ctx),
		Results:    results,
		Process:    monitor.Usage(),
	})
}

// singleWorkerCase returns the index of the one-worker case, or -1
func singleWorkerCase(cases []benchCase) int {
	for i, c := range cases {
		if c.Workers != nil && *c.Workers == 1 {
			return i
		}
	}
	return -1
}

// tablesEqual compares schemas and every column's values regardless of chunking
func tablesEqual(a, b arrow.Table) bool {
	if !a.Schema().Equal(b.Schema()) || a.NumRows() != b.NumRows() {
		return false
	}
	for i := 0; i < int(a.NumCols()); i++ {
		if !array.ChunkedEqual(a.Column(i).Data(), b.Column(i).Data()) {
			return false
		}
	}
	return true
}
