package tablefile

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/arrowfeat/pkg/compression"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

const defaultRowGroupRows = 64 * 1024

func getParquetCompression(algo compression.Algorithm) (compress.Compression, error) {
	switch algo {
	case compression.None:
		return compress.Codecs.Uncompressed, nil
	case compression.Snappy:
		return compress.Codecs.Snappy, nil
	case compression.Gzip:
		return compress.Codecs.Gzip, nil
	case compression.Zstd:
		return compress.Codecs.Zstd, nil
	case compression.LZ4:
		return compress.Codecs.Lz4Raw, nil
	default:
		return compress.Codecs.Uncompressed, errors.Newf(errors.ErrorTypeValidation,
			"parquet supports snappy, gzip, zstd or lz4 compression, not %s", algo)
	}
}

func writeParquet(w io.Writer, tbl arrow.Table, algo compression.Algorithm, rowGroupRows int64, mem memory.Allocator) error {
	codec, err := getParquetCompression(algo)
	if err != nil {
		return err
	}
	if rowGroupRows <= 0 {
		rowGroupRows = defaultRowGroupRows
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithAllocator(mem),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(mem),
		pqarrow.WithStoreSchema(),
	)

	if err := pqarrow.WriteTable(tbl, w, rowGroupRows, props, arrowProps); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write parquet file")
	}
	return nil
}

func readParquet(ctx context.Context, r parquet.ReaderAtSeeker, mem memory.Allocator) (arrow.Table, error) {
	fr, err := file.NewParquetReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid parquet file")
	}
	defer fr.Close()

	arrowReader, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{Parallel: true}, mem)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to create arrow reader")
	}

	tbl, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read parquet table")
	}
	return tbl, nil
}
