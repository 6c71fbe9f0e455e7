// Package logger builds the zap logger shared by arrowfeat commands and
// carries run, input and kernel names through a context.Context.
package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	inputKey  contextKey = "input"
	kernelKey contextKey = "kernel"
)

// Config represents logger configuration
type Config struct {
	Level       string
	Development bool
	Encoding    string // json or console
	OutputPaths []string
}

// DefaultConfig returns info-level JSON logging to stdout
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Encoding: "json",
	}
}

// WithRunID returns a context carrying the given run ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithInput returns a context carrying the input name
func WithInput(ctx context.Context, input string) context.Context {
	return context.WithValue(ctx, inputKey, input)
}

// WithKernel returns a context carrying the kernel name
func WithKernel(ctx context.Context, kernel string) context.Context {
	return context.WithValue(ctx, kernelKey, kernel)
}

// Fields returns the run, input and kernel fields stored in ctx, in that order.
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	for _, key := range []contextKey{runIDKey, inputKey, kernelKey} {
		if v, ok := ctx.Value(key).(string); ok {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	return fields
}

// Init builds a logger from cfg and makes it the global logger. Each call
// replaces the previous logger, which is synced first.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	prev := global
	global = l
	mu.Unlock()
	_ = prev.Sync()
	return nil
}

// New creates a zap logger from cfg
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "json"
	}
	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

// Get returns the global logger; a no-op logger until Init succeeds.
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// WithContext returns the global logger annotated with Fields(ctx)
func WithContext(ctx context.Context) *zap.Logger {
	return Get().With(Fields(ctx)...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return Get().Sync()
}
