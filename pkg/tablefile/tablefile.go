// Package tablefile reads and writes Arrow tables in the serializations the
// arrowfeat CLI accepts: Arrow IPC files and streams, Parquet, CSV (optionally
// compressed) and Avro object container files.
package tablefile

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar/arrowcol"
	"github.com/ajitpratap0/arrowfeat/pkg/compression"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// Format represents a table serialization
type Format string

const (
	// Arrow is the Arrow IPC file format
	Arrow Format = "arrow"
	// ArrowStream is the Arrow IPC stream format
	ArrowStream Format = "arrows"
	// Parquet is Apache Parquet
	Parquet Format = "parquet"
	// CSV is comma separated text with a header row
	CSV Format = "csv"
	// Avro is an Avro object container file of flat records
	Avro Format = "avro"
)

var formatExtensions = map[string]Format{
	".arrow":   Arrow,
	".feather": Arrow,
	".ipc":     Arrow,
	".arrows":  ArrowStream,
	".parquet": Parquet,
	".pq":      Parquet,
	".csv":     CSV,
	".avro":    Avro,
}

// ParseFormat converts a user supplied name into a Format
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case Arrow, ArrowStream, Parquet, CSV, Avro:
		return f, nil
	default:
		return "", errors.Newf(errors.ErrorTypeValidation, "unsupported table format: %s", name)
	}
}

// DetectFormat infers the format and stream compression of path from its
// extensions, e.g. "book.csv.zst" is CSV compressed with zstd.
func DetectFormat(path string) (Format, compression.Algorithm, error) {
	algo, rest := compression.FromExtension(path)
	ext := strings.ToLower(filepath.Ext(rest))
	f, ok := formatExtensions[ext]
	if !ok {
		return "", "", errors.Newf(errors.ErrorTypeValidation, "cannot infer table format from %q", path)
	}
	return f, algo, nil
}

// ReadOptions configures Read
type ReadOptions struct {
	// Format overrides extension detection
	Format Format
	// Compression overrides extension detection for CSV input
	Compression compression.Algorithm
	// BatchRows re-chunks the table into batches of at most this many rows.
	// Zero keeps the file's own batching.
	BatchRows int64
	// Schema pins CSV column types instead of inferring them
	Schema *arrow.Schema
	// Allocator defaults to memory.DefaultAllocator
	Allocator memory.Allocator
}

// WriteOptions configures Write
type WriteOptions struct {
	// Format overrides extension detection
	Format Format
	// Compression applies to IPC bodies (lz4, zstd), Parquet pages
	// (snappy, gzip, zstd, lz4), Avro blocks (snappy, deflate) and CSV streams
	// (any algorithm). Empty uses the extension for CSV and no compression
	// elsewhere.
	Compression compression.Algorithm
	// RowGroupRows bounds Parquet row groups; zero uses 64Ki rows
	RowGroupRows int64
	// Allocator defaults to memory.DefaultAllocator
	Allocator memory.Allocator
}

func resolve(path string, format Format, algo compression.Algorithm) (Format, compression.Algorithm, error) {
	detected, detectedAlgo, detectErr := DetectFormat(path)
	if format == "" {
		if detectErr != nil {
			return "", "", detectErr
		}
		format = detected
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return "", "", err
	}
	if algo == "" {
		algo = detectedAlgo
		if algo == "" {
			algo = compression.None
		}
	}
	if _, err := compression.ParseAlgorithm(string(algo)); err != nil {
		return "", "", err
	}
	return format, algo, nil
}

// Read loads the table stored at path. The caller must release it.
func Read(ctx context.Context, path string, opts ReadOptions) (arrow.Table, error) {
	format, algo, err := resolve(path, opts.Format, opts.Compression)
	if err != nil {
		return nil, err
	}
	mem := opts.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open table file").WithDetail("path", path)
	}
	defer f.Close()

	var tbl arrow.Table
	switch format {
	case Arrow:
		tbl, err = readIPCFile(f, mem)
	case ArrowStream:
		tbl, err = readIPCStream(f, mem)
	case Parquet:
		tbl, err = readParquet(ctx, f, mem)
	case CSV:
		tbl, err = readCSV(f, algo, opts.Schema, mem)
	case Avro:
		tbl, err = readAvro(f, mem)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "failed to read "+string(format)+" table").
			WithDetail("path", path)
	}

	if opts.BatchRows > 0 {
		return rechunk(tbl, opts.BatchRows)
	}
	return tbl, nil
}

// Write stores tbl at path, replacing any existing file.
func Write(tbl arrow.Table, path string, opts WriteOptions) error {
	format, algo, err := resolve(path, opts.Format, opts.Compression)
	if err != nil {
		return err
	}
	if opts.Compression == "" && format != CSV {
		algo = compression.None
	}
	mem := opts.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create table file").WithDetail("path", path)
	}

	switch format {
	case Arrow:
		err = writeIPCFile(f, tbl, algo, mem)
	case ArrowStream:
		err = writeIPCStream(f, tbl, algo, mem)
	case Parquet:
		err = writeParquet(f, tbl, algo, opts.RowGroupRows, mem)
	case CSV:
		err = writeCSV(f, tbl, algo)
	case Avro:
		err = writeAvro(f, tbl, algo)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close table file")
	}
	if err != nil {
		return errors.Wrap(err, errors.TypeOf(err), "failed to write "+string(format)+" table").
			WithDetail("path", path)
	}
	return nil
}

// rechunk rebuilds tbl with batches of at most rows rows and releases tbl.
func rechunk(tbl arrow.Table, rows int64) (arrow.Table, error) {
	defer tbl.Release()

	recs := arrowcol.SliceTable(tbl, rows)
	defer releaseAll(recs)
	return arrowcol.NewTable(tbl.Schema(), recs)
}

// tableFromRecords builds a table and releases recs.
func tableFromRecords(schema *arrow.Schema, recs []arrow.Record) (arrow.Table, error) {
	defer releaseAll(recs)
	return arrowcol.NewTable(schema, recs)
}

func releaseAll(recs []arrow.Record) {
	for _, r := range recs {
		r.Release()
	}
}
