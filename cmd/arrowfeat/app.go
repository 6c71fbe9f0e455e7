package main

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/arrowfeat/pkg/config"
	"github.com/ajitpratap0/arrowfeat/pkg/features"
	"github.com/ajitpratap0/arrowfeat/pkg/json"
	"github.com/ajitpratap0/arrowfeat/pkg/logger"
	"github.com/ajitpratap0/arrowfeat/pkg/metrics"
	"github.com/ajitpratap0/arrowfeat/pkg/observability"
	"github.com/ajitpratap0/arrowfeat/pkg/performance"
)

// Persistent flag names, also the viper keys. Env vars use the ARROWFEAT_
// prefix with dashes turned into underscores, e.g. ARROWFEAT_LOG_LEVEL.
const (
	flagConfig      = "config"
	flagLogLevel    = "log-level"
	flagLogEncoding = "log-encoding"
	flagMetrics     = "metrics"
	flagTrace       = "trace"
	flagPretty      = "pretty"
	flagCPUProfile  = "cpuprofile"
	flagMemProfile  = "memprofile"
)

// app holds what every command shares: resolved configuration, logger,
// metrics collector and the tracing and profiling handles to close.
type app struct {
	v   *viper.Viper
	out io.Writer

	cfg     *config.FeatureConfig
	log     *zap.Logger
	metrics *metrics.Collector

	tp          *sdktrace.TracerProvider
	stopProfile func() error
	closed      bool
}

func newApp(out io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix("ARROWFEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return &app{v: v, out: out, log: zap.NewNop()}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "arrowfeat",
		Short: "arrowfeat - columnar feature extraction over Arrow tables",
		Long: `arrowfeat computes per-row features over Arrow record batches.
The depth kernel finds, for each cumulative depth threshold, the relative
distance from the anchor price at which the threshold is crossed. Tables are
split into batches and processed by a pool of workers; output preserves input
batch order.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.String(flagConfig, "", "Path to a YAML feature configuration file")
	pf.String(flagLogLevel, "info", "Log level (debug, info, warn, error)")
	pf.String(flagLogEncoding, "json", "Log encoding (json, console)")
	pf.Bool(flagMetrics, true, "Collect prometheus metrics and include their summary in reports")
	pf.Bool(flagTrace, false, "Export OpenTelemetry spans to stderr")
	pf.Bool(flagPretty, false, "Indent JSON reports")
	pf.String(flagCPUProfile, "", "Write a CPU profile to this file")
	pf.String(flagMemProfile, "", "Write a heap profile to this file on exit")

	root.AddCommand(
		newDepthCommand(a),
		newOddCountCommand(a),
		newGenerateCommand(a),
		newBenchCommand(a),
		newInfoCommand(a),
		newVersionCommand(a),
	)
	return root
}

// setup resolves configuration as config file, then ARROWFEAT_* env, then
// flags, and starts logging, metrics, tracing and profiling.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	a.cfg = config.NewFeatureConfig("arrowfeat")
	if path := a.v.GetString(flagConfig); path != "" {
		if err := config.Load(path, a.cfg); err != nil {
			return err
		}
	}

	obs := &a.cfg.Observability
	if a.v.IsSet(flagLogLevel) || obs.LogLevel == "" {
		obs.LogLevel = a.v.GetString(flagLogLevel)
	}
	if a.v.IsSet(flagLogEncoding) || obs.LogEncoding == "" {
		obs.LogEncoding = a.v.GetString(flagLogEncoding)
	}
	if a.v.IsSet(flagMetrics) {
		obs.EnableMetrics = a.v.GetBool(flagMetrics)
	}
	if a.v.IsSet(flagTrace) {
		obs.EnableTracing = a.v.GetBool(flagTrace)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = obs.LogLevel
	logCfg.Encoding = obs.LogEncoding
	logCfg.OutputPaths = []string{"stderr"}
	if err := logger.Init(logCfg); err != nil {
		return err
	}
	ctx := logger.WithRunID(cmd.Context(), a.cfg.Name)
	a.log = logger.WithContext(ctx).With(zap.String("command", cmd.Name()))

	if obs.EnableMetrics {
		a.metrics = metrics.NewCollector(obs.MetricsNamespace)
	}

	if obs.EnableTracing {
		tc := observability.DefaultTracingConfig()
		tc.ServiceVersion = version
		tc.SamplingRate = obs.TracingSampleRate
		tc.Writer = cmd.ErrOrStderr()
		tp, err := observability.InitTracing(tc)
		if err != nil {
			return err
		}
		a.tp = tp
	}

	if path := a.v.GetString(flagCPUProfile); path != "" {
		stop, err := performance.StartCPUProfile(path)
		if err != nil {
			return err
		}
		a.stopProfile = stop
	}
	return nil
}

// close flushes everything setup started. It is safe to call more than once.
func (a *app) close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if a.stopProfile != nil {
		keep(a.stopProfile())
	}
	if path := a.v.GetString(flagMemProfile); path != "" {
		keep(performance.WriteHeapProfile(path))
	}
	keep(observability.Shutdown(context.Background(), a.tp))
	_ = logger.Sync() // stderr sync fails on some terminals
	return first
}

// tableOptions builds the driver options shared by kernel commands.
func (a *app) tableOptions(depth config.DepthConfig) []features.TableOption {
	opts := []features.TableOption{
		features.WithLogger(a.log),
		features.WithMetrics(a.metrics),
	}
	if n, ok := depth.Workers(); ok {
		opts = append(opts, features.WithMaxWorkers(n))
	}
	return opts
}

func (a *app) report(v interface{}) error {
	return json.Write(a.out, v, a.v.GetBool(flagPretty))
}
