package columnar

import (
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// Table is an ordered sequence of batches sharing one schema
type Table struct {
	schema  *Schema
	batches []Batch
	rows    int
}

// NewTable assembles batches into a table. All batches must have the same
// schema as the first one; an empty slice is an empty input error.
func NewTable(batches []Batch) (*Table, error) {
	if len(batches) == 0 {
		return nil, errors.New(errors.ErrorTypeEmptyInput, "table requires at least one batch")
	}

	schema := batches[0].Schema()
	rows := 0
	for i, b := range batches {
		if b == nil {
			return nil, errors.Newf(errors.ErrorTypeShape, "batch %d is nil", i)
		}
		if !b.Schema().Equal(schema) {
			return nil, errors.Newf(errors.ErrorTypeShape, "batch %d schema %s does not match %s",
				i, b.Schema(), schema).WithDetail("batch_index", i)
		}
		rows += b.NumRows()
	}

	cp := make([]Batch, len(batches))
	copy(cp, batches)
	return &Table{schema: schema, batches: cp, rows: rows}, nil
}

// Schema returns the shared schema
func (t *Table) Schema() *Schema { return t.schema }

// NumRows returns the total number of rows across all batches
func (t *Table) NumRows() int { return t.rows }

// NumBatches returns the number of batches
func (t *Table) NumBatches() int { return len(t.batches) }

// Batch returns the i-th batch
func (t *Table) Batch(i int) Batch { return t.batches[i] }

// Batches returns the batches in order
func (t *Table) Batches() []Batch {
	cp := make([]Batch, len(t.batches))
	copy(cp, t.batches)
	return cp
}
