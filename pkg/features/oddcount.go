package features

import (
	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// CountPositiveOdd counts, per row, the values that are positive and odd
// across exactly four int64 columns. Null entries are skipped. The result is a
// non-null int64 column with one entry per row, released by the caller with
// columnar.ReleaseColumns.
func CountPositiveOdd(batch columnar.Batch, alloc columnar.Allocator) (columnar.Column, error) {
	if batch.NumCols() != OddCountColumns {
		return nil, errors.Newf(errors.ErrorTypeShape, "odd count needs exactly %d columns, got %d",
			OddCountColumns, batch.NumCols()).WithDetail("num_columns", batch.NumCols())
	}

	cols := make([]columnar.Int64Column, OddCountColumns)
	for i := range cols {
		c := batch.Column(i)
		ic, ok := c.(columnar.Int64Column)
		if !ok || c.DataType() != columnar.Int64 {
			return nil, errors.Newf(errors.ErrorTypeShape, "odd count column %d is %s, want int64",
				i, c.DataType()).WithDetail("column_index", i)
		}
		cols[i] = ic
	}

	counts := make([]int64, batch.NumRows())
	for _, c := range cols {
		vals := c.Int64Values()
		hasNulls := c.NullN() > 0
		for i := range counts {
			if hasNulls && c.IsNull(i) {
				continue
			}
			if v := vals[i]; v > 0 && v%2 != 0 {
				counts[i]++
			}
		}
	}

	b := alloc.NewInt64Builder()
	if err := b.Reserve(len(counts)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAllocation, "failed to reserve odd count column")
	}
	if err := b.AppendValues(counts); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAllocation, "failed to append odd counts")
	}
	col, err := b.Finish()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAllocation, "failed to finish odd count column")
	}
	return col, nil
}

// OddCountBatch wraps CountPositiveOdd's column in a single-column batch
// named odd_count.
func OddCountBatch(batch columnar.Batch, alloc columnar.Allocator) (columnar.Batch, error) {
	col, err := CountPositiveOdd(batch, alloc)
	if err != nil {
		return nil, err
	}
	defer columnar.ReleaseColumns(col)

	out, err := alloc.NewBatch(OddCountSchema(), []columnar.Column{col})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAllocation, "failed to assemble odd count batch")
	}
	return out, nil
}
