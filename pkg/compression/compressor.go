// Package compression wraps byte streams with the codecs arrowfeat accepts
// for text table files.
//
// # Overview
//
// The compression package provides:
//   - Stream writers and readers for Gzip, Snappy, LZ4, Zstd, S2 and Deflate
//   - Configurable compression levels (Fastest, Default, Better, Best)
//   - Algorithm detection from file extensions (".csv.gz", ".csv.zst", ...)
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//	w, err := comp.NewWriter(file)
//	defer w.Close()
//
// # Algorithm Selection
//
// Speed (fastest to slowest): LZ4 > Snappy/S2 > Zstd > Gzip/Deflate
// Compression ratio (best to worst): Zstd > Gzip/Deflate > Snappy/S2 > LZ4
package compression

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents LZ4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents Zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents S2 compression (Snappy-compatible but better compression)
	S2 Algorithm = "s2"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// String returns the level name
func (l Level) String() string {
	switch l {
	case Fastest:
		return "fastest"
	case Default:
		return "default"
	case Better:
		return "better"
	case Best:
		return "best"
	default:
		return "custom"
	}
}

var extensions = map[string]Algorithm{
	".gz":      Gzip,
	".gzip":    Gzip,
	".sz":      Snappy,
	".snappy":  Snappy,
	".lz4":     LZ4,
	".zst":     Zstd,
	".zstd":    Zstd,
	".s2":      S2,
	".deflate": Deflate,
}

// ParseAlgorithm converts a user supplied name into an Algorithm.
// The empty string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case "":
		return None, nil
	case None, Gzip, Snappy, LZ4, Zstd, S2, Deflate:
		return a, nil
	default:
		return "", errors.Newf(errors.ErrorTypeValidation, "unsupported compression algorithm: %s", name)
	}
}

// FromExtension returns the algorithm implied by the last extension of path
// and the path with that extension removed. Paths without a known codec
// extension return None and the path unchanged.
func FromExtension(path string) (Algorithm, string) {
	ext := strings.ToLower(filepath.Ext(path))
	if algo, ok := extensions[ext]; ok {
		return algo, strings.TrimSuffix(path, path[len(path)-len(ext):])
	}
	return None, path
}

// Compressor provides stream compression for one algorithm.
type Compressor interface {
	// NewWriter returns a writer compressing into w. Close flushes the
	// codec but does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)
	// NewReader returns a reader decompressing r.
	NewReader(r io.Reader) (io.ReadCloser, error)
	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm
	// Level returns the compression level used.
	Level() Level
}

// Config configures compression behavior.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
}

// DefaultConfig returns a default compression configuration
func DefaultConfig() *Config {
	return &Config{
		Algorithm: Zstd,
		Level:     Default,
	}
}

// NewCompressor creates a compressor for config.Algorithm
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	algo, err := ParseAlgorithm(string(config.Algorithm))
	if err != nil {
		return nil, err
	}
	level := config.Level
	if level == 0 {
		level = Default
	}
	return &codec{algorithm: algo, level: level}, nil
}

// codec implements Compressor by switching on the algorithm.
type codec struct {
	algorithm Algorithm
	level     Level
}

func (c *codec) Algorithm() Algorithm { return c.algorithm }
func (c *codec) Level() Level         { return c.level }

func (c *codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c.algorithm {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, mapGzipLevel(c.level))
	case Deflate:
		return flate.NewWriter(w, mapGzipLevel(c.level))
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case S2:
		return s2.NewWriter(w, s2Options(c.level)...), nil
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(mapLZ4Level(c.level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid lz4 level")
		}
		return lw, nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(mapZstdLevel(c.level)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create zstd encoder")
		}
		return enc, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported compression algorithm: %s", c.algorithm)
	}
}

func (c *codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch c.algorithm {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid gzip stream")
		}
		return gr, nil
	case Deflate:
		return flate.NewReader(r), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid zstd stream")
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported compression algorithm: %s", c.algorithm)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func s2Options(level Level) []s2.WriterOption {
	switch level {
	case Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	case Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	default:
		return nil
	}
}
