// Package synth generates deterministic Arrow tables for benchmarks, demos
// and tests.
package synth

import (
	"fmt"
	"math/rand"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar/arrowcol"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// Options shapes a generated table
type Options struct {
	Batches      int   `json:"batches"`
	RowsPerBatch int   `json:"rows_per_batch"`
	Columns      int   `json:"columns"`
	Seed         int64 `json:"seed"`
}

// DefaultOptions matches the parallel benchmark table: 8 batches of 5000 rows
// and 6 columns, i.e. three depth levels.
func DefaultOptions() Options {
	return Options{Batches: 8, RowsPerBatch: 5000, Columns: 6}
}

// Validate checks that the options describe a non-empty table
func (o Options) Validate() error {
	switch {
	case o.Batches <= 0:
		return errors.Newf(errors.ErrorTypeValidation, "batches must be positive, got %d", o.Batches)
	case o.RowsPerBatch < 0:
		return errors.Newf(errors.ErrorTypeValidation, "rows per batch must not be negative, got %d", o.RowsPerBatch)
	case o.Columns <= 0:
		return errors.Newf(errors.ErrorTypeValidation, "columns must be positive, got %d", o.Columns)
	}
	return nil
}

// Schema returns the float64 schema col_0..col_{n-1}
func Schema(columns int) *arrow.Schema {
	fields := make([]arrow.Field, columns)
	for i := range fields {
		fields[i] = arrow.Field{Name: fmt.Sprintf("col_%d", i), Type: arrow.PrimitiveTypes.Float64}
	}
	return arrow.NewSchema(fields, nil)
}

// Records generates one record per batch. Column c of batch b holds uniform
// values in [0, (b+1)*(c+1)) drawn from a source seeded with
// Seed + b*Columns + c, so every batch and column differs and reruns match.
// The caller must release the records.
func Records(opts Options, mem memory.Allocator) ([]arrow.Record, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	schema := Schema(opts.Columns)

	recs := make([]arrow.Record, opts.Batches)
	values := make([]float64, opts.RowsPerBatch)
	for b := range recs {
		rb := array.NewRecordBuilder(mem, schema)
		for c := 0; c < opts.Columns; c++ {
			rng := rand.New(rand.NewSource(opts.Seed + int64(b*opts.Columns+c)))
			scale := float64((b + 1) * (c + 1))
			for i := range values {
				values[i] = rng.Float64() * scale
			}
			rb.Field(c).(*array.Float64Builder).AppendValues(values, nil)
		}
		recs[b] = rb.NewRecord()
		rb.Release()
	}
	return recs, nil
}

// Table generates a table whose chunks are the batches of Records.
// The caller must release it.
func Table(opts Options, mem memory.Allocator) (arrow.Table, error) {
	recs, err := Records(opts, mem)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()
	return arrowcol.NewTable(Schema(opts.Columns), recs)
}

// OddCountRecord returns the four-column int64 demo batch. Its positive odd
// counts per row are 3, 2, 3, 1.
func OddCountRecord(mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "col1", Type: arrow.PrimitiveTypes.Int64},
		{Name: "col2", Type: arrow.PrimitiveTypes.Int64},
		{Name: "col3", Type: arrow.PrimitiveTypes.Int64},
		{Name: "col4", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()
	rb.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3, 4}, nil)
	rb.Field(1).(*array.Int64Builder).AppendValues([]int64{-1, 5, -7, 8}, nil)
	rb.Field(2).(*array.Int64Builder).AppendValues([]int64{9, 0, 11, -12}, nil)
	rb.Field(3).(*array.Int64Builder).AppendValues([]int64{13, 15, 17, 19}, nil)
	return rb.NewRecord()
}

// OddCountTable returns a table of n copies of the demo batch.
// The caller must release it.
func OddCountTable(n int, mem memory.Allocator) (arrow.Table, error) {
	if n <= 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "batches must be positive, got %d", n)
	}
	rec := OddCountRecord(mem)
	defer rec.Release()

	recs := make([]arrow.Record, n)
	for i := range recs {
		recs[i] = rec
	}
	return arrowcol.NewTable(rec.Schema(), recs)
}
