package arrowcol

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// Record returns the Arrow record behind b. Batches that are not Arrow-backed
// are copied into a new record drawn from alloc. The caller owns one reference
// to the result and must release it.
func Record(b columnar.Batch, alloc *Allocator) (arrow.Record, error) {
	if rb, ok := b.(*recordBatch); ok {
		rb.rec.Retain()
		return rb.rec, nil
	}
	if alloc == nil {
		alloc = NewAllocator(nil)
	}

	cols := make([]columnar.Column, b.NumCols())
	for i := range cols {
		cols[i] = b.Column(i)
	}
	out, err := alloc.NewBatch(b.Schema(), cols)
	if err != nil {
		return nil, err
	}
	return out.(*recordBatch).rec, nil
}

// SplitTable decomposes tbl into records following its chunk layout, in order.
// Each returned record is retained and must be released by the caller.
func SplitTable(tbl arrow.Table) []arrow.Record {
	return SliceTable(tbl, 0)
}

// SliceTable decomposes tbl into records of at most rows rows each. Chunk
// boundaries are kept, so a record may be shorter than rows. rows <= 0 keeps
// the chunk layout unchanged. Empty chunks produce no record wherever they
// sit in the table.
func SliceTable(tbl arrow.Table, rows int64) []arrow.Record {
	tr := array.NewTableReader(tbl, rows)
	defer tr.Release()

	var recs []arrow.Record
	for tr.Next() {
		rec := tr.Record()
		if rec.NumRows() == 0 {
			continue
		}
		rec.Retain()
		recs = append(recs, rec)
	}
	return recs
}

// FromTable wraps every record of tbl as a Batch, in chunk order. The
// batches must be released with Release.
func FromTable(tbl arrow.Table) ([]columnar.Batch, error) {
	recs := SplitTable(tbl)
	defer releaseRecords(recs)

	batches := make([]columnar.Batch, len(recs))
	for i, rec := range recs {
		b, err := Wrap(rec)
		if err != nil {
			Release(batches)
			return nil, errors.Wrap(err, errors.ErrorTypeShape, "cannot wrap table chunk").
				WithDetail("batch_index", i)
		}
		batches[i] = b
	}
	return batches, nil
}

// NewTable concatenates records that share schema into an Arrow table.
func NewTable(schema *arrow.Schema, recs []arrow.Record) (arrow.Table, error) {
	for i, rec := range recs {
		if !rec.Schema().Equal(schema) {
			return nil, errors.Newf(errors.ErrorTypeShape, "record %d schema %s does not match %s",
				i, rec.Schema(), schema).WithDetail("batch_index", i)
		}
	}
	return array.NewTableFromRecords(schema, recs), nil
}

// ToTable converts a columnar table into an Arrow table, copying any batch
// that is not Arrow-backed. t keeps its own references; the caller still
// releases its batches.
func ToTable(t *columnar.Table, alloc *Allocator) (arrow.Table, error) {
	recs := make([]arrow.Record, 0, t.NumBatches())
	defer func() { releaseRecords(recs) }()

	for i := 0; i < t.NumBatches(); i++ {
		rec, err := Record(t.Batch(i), alloc)
		if err != nil {
			return nil, errors.Wrap(err, errors.TypeOf(err), "cannot convert batch").
				WithDetail("batch_index", i)
		}
		recs = append(recs, rec)
	}
	schema := ToArrowSchema(t.Schema())
	if len(recs) > 0 {
		schema = recs[0].Schema()
	}
	return NewTable(schema, recs)
}

// Release releases the records behind Arrow-backed batches, such as those
// returned by FromTable. Other batches are ignored.
func Release(batches []columnar.Batch) {
	columnar.ReleaseBatches(batches...)
}

func releaseRecords(recs []arrow.Record) {
	for _, r := range recs {
		r.Release()
	}
}
