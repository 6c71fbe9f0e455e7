package main

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowfeat/internal/pipeline"
	"github.com/ajitpratap0/arrowfeat/internal/synth"
	"github.com/ajitpratap0/arrowfeat/pkg/arrowutils"
	"github.com/ajitpratap0/arrowfeat/pkg/columnar/arrowcol"
	"github.com/ajitpratap0/arrowfeat/pkg/compression"
	"github.com/ajitpratap0/arrowfeat/pkg/config"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
	"github.com/ajitpratap0/arrowfeat/pkg/features"
	"github.com/ajitpratap0/arrowfeat/pkg/logger"
	"github.com/ajitpratap0/arrowfeat/pkg/metrics"
	"github.com/ajitpratap0/arrowfeat/pkg/performance"
	"github.com/ajitpratap0/arrowfeat/pkg/tablefile"
)

// Kernel command flag names
const (
	flagInput             = "input"
	flagInputFormat       = "input-format"
	flagInputCompression  = "input-compression"
	flagBatchRows         = "batch-rows"
	flagOutput            = "output"
	flagOutputFormat      = "output-format"
	flagOutputCompression = "output-compression"
	flagThresholds        = "thresholds"
	flagWorkers           = "workers"
)

// runReport is the JSON document printed after a kernel command
type runReport struct {
	Kernel     string           `json:"kernel"`
	Input      string           `json:"input"`
	Output     string           `json:"output,omitempty"`
	Batches    int              `json:"batches"`
	Rows       int64            `json:"rows"`
	Columns    int64            `json:"output_columns"`
	Workers    int              `json:"workers"`
	Thresholds []float64        `json:"thresholds,omitempty"`
	Duration   time.Duration    `json:"duration_ns"`
	Metrics    *metrics.Summary `json:"metrics,omitempty"`
}

func addIOFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP(flagInput, "i", "", "Input table file")
	f.String(flagInputFormat, "", "Input format (arrow, arrows, parquet, csv, avro); detected from the extension when empty")
	f.String(flagInputCompression, "", "Compression of a CSV input stream; detected from the extension when empty")
	f.Int(flagBatchRows, 0, "Re-chunk the input into batches of this many rows (0 keeps file batches)")
	f.StringP(flagOutput, "o", "", "Output table file; no file is written when empty")
	f.String(flagOutputFormat, "", "Output format; detected from the extension when empty")
	f.String(flagOutputCompression, "", "Output compression codec; its meaning depends on the format")
	f.Int(flagWorkers, 0, "Maximum worker count; defaults to min(GOMAXPROCS, batches)")
}

// applyIOFlags overlays explicitly set flags and env vars onto the config
// sections read from the config file.
func (a *app) applyIOFlags() {
	in, out := &a.cfg.Input, &a.cfg.Output
	if a.v.IsSet(flagInput) {
		in.Path = a.v.GetString(flagInput)
	}
	if a.v.IsSet(flagInputFormat) {
		in.Format = a.v.GetString(flagInputFormat)
	}
	if a.v.IsSet(flagInputCompression) {
		in.Compression = a.v.GetString(flagInputCompression)
	}
	if a.v.IsSet(flagBatchRows) {
		in.BatchRows = a.v.GetInt(flagBatchRows)
	}
	if a.v.IsSet(flagOutput) {
		out.Path = a.v.GetString(flagOutput)
	}
	if a.v.IsSet(flagOutputFormat) {
		out.Format = a.v.GetString(flagOutputFormat)
	}
	if a.v.IsSet(flagOutputCompression) {
		out.Compression = a.v.GetString(flagOutputCompression)
	}
	if a.v.IsSet(flagWorkers) {
		n := a.v.GetInt(flagWorkers)
		a.cfg.Depth.MaxWorkers = &n
	}
}

// compressionOverride parses a configured codec name. "none" from the
// defaults means "not chosen", leaving the extension to decide.
func compressionOverride(name string) (compression.Algorithm, error) {
	if name == "" || name == string(compression.None) {
		return "", nil
	}
	return compression.ParseAlgorithm(name)
}

func (a *app) readInput(ctx context.Context) (arrow.Table, error) {
	in := a.cfg.Input
	if in.Path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "input path is required")
	}
	format, err := formatOverride(in.Format)
	if err != nil {
		return nil, err
	}
	algo, err := compressionOverride(in.Compression)
	if err != nil {
		return nil, err
	}

	a.log.Info("reading input", zap.String("path", in.Path), zap.Int("batch_rows", in.BatchRows))
	return tablefile.Read(ctx, in.Path, tablefile.ReadOptions{
		Format:      format,
		Compression: algo,
		BatchRows:   int64(in.BatchRows),
	})
}

func (a *app) writeOutput(tbl arrow.Table) error {
	out := a.cfg.Output
	if out.Path == "" {
		return nil
	}
	format, err := formatOverride(out.Format)
	if err != nil {
		return err
	}
	algo, err := compressionOverride(out.Compression)
	if err != nil {
		return err
	}

	a.log.Info("writing output", zap.String("path", out.Path), zap.Int64("rows", tbl.NumRows()))
	return tablefile.Write(tbl, out.Path, tablefile.WriteOptions{Format: format, Compression: algo})
}

func formatOverride(name string) (tablefile.Format, error) {
	if name == "" {
		return "", nil
	}
	return tablefile.ParseFormat(name)
}

// countBatches returns the number of non-empty batches the driver will see
func countBatches(tbl arrow.Table) int {
	recs := arrowcol.SplitTable(tbl)
	for _, r := range recs {
		r.Release()
	}
	return len(recs)
}

// plannedWorkers reports the worker count the driver resolves for n batches
func plannedWorkers(depth config.DepthConfig, n int) int {
	w, err := pipeline.NewDriver(pipeline.Config{MaxWorkers: depth.MaxWorkers}).Workers(n)
	if err != nil {
		return 0
	}
	return w
}

func (a *app) summary() *metrics.Summary {
	if a.metrics == nil {
		return nil
	}
	s := a.metrics.Summary()
	return &s
}

func newDepthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depth",
		Short: "Extract depth features from a table",
		Long: `Read a table of 2*L numeric columns (L quantity columns followed by their
L weight columns), compute one feature column per threshold and write the
feature table.

Example:
  arrowfeat depth -i book.parquet -o features.arrow --thresholds 15,40 --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyIOFlags()
			thresholds, err := a.thresholds(cmd)
			if err != nil {
				return err
			}
			if thresholds != nil {
				a.cfg.Depth.Thresholds = thresholds
			}
			return a.runDepth(cmd.Context())
		},
	}
	addIOFlags(cmd)
	cmd.Flags().Float64Slice(flagThresholds, nil, "Cumulative depth thresholds, sorted ascending")
	return cmd
}

// thresholds returns the --thresholds flag, or ARROWFEAT_THRESHOLDS as a
// comma separated list, or nil when neither is set.
func (a *app) thresholds(cmd *cobra.Command) ([]float64, error) {
	if cmd.Flags().Changed(flagThresholds) {
		return cmd.Flags().GetFloat64Slice(flagThresholds)
	}
	if !a.v.IsSet(flagThresholds) {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(a.v.GetString(flagThresholds), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid threshold").WithDetail("value", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func (a *app) runDepth(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	ctx = logger.WithKernel(logger.WithInput(ctx, a.cfg.Input.Path), features.KernelDepth)
	a.log = a.log.With(zap.String("kernel", features.KernelDepth))

	tbl, err := a.readInput(ctx)
	if err != nil {
		return err
	}
	defer tbl.Release()

	start := time.Now()
	res, err := arrowutils.ExtractDepthFeatureFromTable(ctx, tbl, a.cfg.Depth.Thresholds, a.tableOptions(a.cfg.Depth)...)
	if err != nil {
		return err
	}
	defer res.Release()
	elapsed := time.Since(start)

	if err := a.writeOutput(res); err != nil {
		return err
	}

	n := countBatches(tbl)
	a.log.Info("depth features extracted",
		zap.Int("batches", n),
		zap.Int64("rows", res.NumRows()),
		zap.Duration("duration", elapsed))

	return a.report(runReport{
		Kernel:     features.KernelDepth,
		Input:      a.cfg.Input.Path,
		Output:     a.cfg.Output.Path,
		Batches:    n,
		Rows:       res.NumRows(),
		Columns:    res.NumCols(),
		Workers:    plannedWorkers(a.cfg.Depth, n),
		Thresholds: a.cfg.Depth.Thresholds,
		Duration:   elapsed,
		Metrics:    a.summary(),
	})
}

func newOddCountCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oddcount",
		Short: "Count positive odd values per row of a four-column int64 table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyIOFlags()
			return a.runOddCount(cmd.Context())
		},
	}
	addIOFlags(cmd)
	return cmd
}

func (a *app) runOddCount(ctx context.Context) error {
	ctx = logger.WithKernel(logger.WithInput(ctx, a.cfg.Input.Path), features.KernelOddCount)
	a.log = a.log.With(zap.String("kernel", features.KernelOddCount))

	tbl, err := a.readInput(ctx)
	if err != nil {
		return err
	}
	defer tbl.Release()

	start := time.Now()
	res, err := arrowutils.CountPositiveOddTable(ctx, tbl, a.tableOptions(a.cfg.Depth)...)
	if err != nil {
		return err
	}
	defer res.Release()
	elapsed := time.Since(start)

	if err := a.writeOutput(res); err != nil {
		return err
	}

	n := countBatches(tbl)
	return a.report(runReport{
		Kernel:   features.KernelOddCount,
		Input:    a.cfg.Input.Path,
		Output:   a.cfg.Output.Path,
		Batches:  n,
		Rows:     res.NumRows(),
		Columns:  res.NumCols(),
		Workers:  plannedWorkers(a.cfg.Depth, n),
		Duration: elapsed,
		Metrics:  a.summary(),
	})
}

func newGenerateCommand(a *app) *cobra.Command {
	var opts synth.Options
	var demo bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic table",
		Long: `Write a deterministic table of float64 columns col_0..col_{n-1}. Column c of
batch b holds uniform values in [0, (b+1)*(c+1)). With --oddcount-demo the
four-column int64 demo batch is repeated --batches times instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyIOFlags()
			if a.cfg.Output.Path == "" {
				return errors.New(errors.ErrorTypeConfig, "output path is required")
			}

			var (
				tbl arrow.Table
				err error
			)
			if demo {
				tbl, err = synth.OddCountTable(opts.Batches, nil)
			} else {
				tbl, err = synth.Table(opts, nil)
			}
			if err != nil {
				return err
			}
			defer tbl.Release()

			if err := a.writeOutput(tbl); err != nil {
				return err
			}
			return a.report(map[string]interface{}{
				"output":  a.cfg.Output.Path,
				"rows":    tbl.NumRows(),
				"columns": tbl.NumCols(),
				"batches": opts.Batches,
			})
		},
	}

	def := synth.DefaultOptions()
	f := cmd.Flags()
	f.StringP(flagOutput, "o", "", "Output table file")
	f.String(flagOutputFormat, "", "Output format; detected from the extension when empty")
	f.String(flagOutputCompression, "", "Output compression codec")
	f.IntVar(&opts.Batches, "batches", def.Batches, "Number of record batches")
	f.IntVar(&opts.RowsPerBatch, "rows", def.RowsPerBatch, "Rows per batch")
	f.IntVar(&opts.Columns, "columns", def.Columns, "Number of columns; even for depth input")
	f.Int64Var(&opts.Seed, "seed", 0, "Seed offset for the value generator")
	f.BoolVar(&demo, "oddcount-demo", false, "Write the int64 odd-count demo batch instead")
	return cmd
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show host resources and the default worker count",
		RunE: func(cmd *cobra.Command, args []string) error {
			host := performance.Host(cmd.Context())
			return a.report(struct {
				Host           performance.HostInfo      `json:"host"`
				DefaultWorkers int                       `json:"default_workers"`
				Process        performance.ResourceUsage `json:"process"`
			}{
				Host:           host,
				DefaultWorkers: runtime.GOMAXPROCS(0),
				Process:        performance.NewResourceMonitor().Usage(),
			})
		},
	}
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "arrowfeat v%s\n", version)
			fmt.Fprintf(a.out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
