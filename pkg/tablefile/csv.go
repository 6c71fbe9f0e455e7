package tablefile

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/arrowfeat/pkg/compression"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// csvChunkRows is the number of rows per record when reading CSV
const csvChunkRows = 64 * 1024

func writeCSV(w io.Writer, tbl arrow.Table, algo compression.Algorithm) error {
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algo})
	if err != nil {
		return err
	}
	cw, err := comp.NewWriter(w)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(cw, tbl.Schema(), csv.WithHeader(true))
	if err := writeRecords(tbl, writer.Write); err != nil {
		cw.Close()
		return err
	}
	if err := writer.Flush(); err != nil {
		cw.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush csv writer")
	}
	if err := cw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish "+string(algo)+" stream")
	}
	return nil
}

func readCSV(r io.Reader, algo compression.Algorithm, schema *arrow.Schema, mem memory.Allocator) (arrow.Table, error) {
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algo})
	if err != nil {
		return nil, err
	}
	cr, err := comp.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	opts := []csv.Option{
		csv.WithHeader(true),
		csv.WithChunk(csvChunkRows),
		csv.WithAllocator(mem),
	}
	var reader *csv.Reader
	if schema != nil {
		reader = csv.NewReader(cr, schema, opts...)
	} else {
		reader = csv.NewInferringReader(cr, opts...)
	}
	defer reader.Release()

	var recs []arrow.Record
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		releaseAll(recs)
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse csv")
	}

	if schema == nil {
		schema = reader.Schema()
	}
	if schema == nil {
		return nil, errors.New(errors.ErrorTypeData, "cannot infer column types from a csv without rows")
	}
	return tableFromRecords(schema, recs)
}
