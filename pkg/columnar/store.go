package columnar

import (
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// memColumn is a slice-backed column. valid == nil means no nulls.
type memColumn struct {
	typ   DataType
	i64   []int64
	f64   []float64
	valid []bool
	nulls int
}

// NewInt64Column creates an in-memory int64 column. valid may be nil;
// otherwise it must have len(values) entries, false marking nulls.
func NewInt64Column(values []int64, valid []bool) Int64Column {
	return &memColumn{typ: Int64, i64: values, valid: valid, nulls: countNulls(valid)}
}

// NewFloat64Column creates an in-memory float64 column. valid follows NewInt64Column.
func NewFloat64Column(values []float64, valid []bool) Float64Column {
	return &memColumn{typ: Float64, f64: values, valid: valid, nulls: countNulls(valid)}
}

func countNulls(valid []bool) int {
	n := 0
	for _, v := range valid {
		if !v {
			n++
		}
	}
	return n
}

func (c *memColumn) Len() int {
	if c.typ == Int64 {
		return len(c.i64)
	}
	return len(c.f64)
}

func (c *memColumn) DataType() DataType { return c.typ }

func (c *memColumn) IsNull(i int) bool { return c.valid != nil && !c.valid[i] }

func (c *memColumn) NullN() int { return c.nulls }

func (c *memColumn) Int64Values() []int64 { return c.i64 }

func (c *memColumn) Float64Values() []float64 { return c.f64 }

// memBatch is a slice-backed Batch
type memBatch struct {
	schema *Schema
	rows   int
	cols   []Column
}

// NewBatch assembles an in-memory batch after checking shape and types.
func NewBatch(schema *Schema, cols []Column) (Batch, error) {
	rows, err := ValidateBatch(schema, cols)
	if err != nil {
		return nil, err
	}
	cp := make([]Column, len(cols))
	copy(cp, cols)
	return &memBatch{schema: schema, rows: rows, cols: cp}, nil
}

func (b *memBatch) Schema() *Schema     { return b.schema }
func (b *memBatch) NumRows() int        { return b.rows }
func (b *memBatch) NumCols() int        { return len(b.cols) }
func (b *memBatch) Column(i int) Column { return b.cols[i] }

// MemAllocator builds slice-backed columns and batches.
// A positive MaxValues caps every builder; exceeding it is an allocation error.
type MemAllocator struct {
	MaxValues int
}

// NewMemAllocator returns an unbounded in-memory allocator
func NewMemAllocator() *MemAllocator {
	return &MemAllocator{}
}

// NewInt64Builder implements Allocator
func (a *MemAllocator) NewInt64Builder() Int64Builder {
	return &memInt64Builder{limit: a.MaxValues}
}

// NewFloat64Builder implements Allocator
func (a *MemAllocator) NewFloat64Builder() Float64Builder {
	return &memFloat64Builder{limit: a.MaxValues}
}

// NewBatch implements Allocator
func (a *MemAllocator) NewBatch(schema *Schema, cols []Column) (Batch, error) {
	return NewBatch(schema, cols)
}

func checkLimit(limit, have, adding int) error {
	if limit > 0 && have+adding > limit {
		return errors.Newf(errors.ErrorTypeAllocation, "builder capacity exceeded: %d + %d > %d", have, adding, limit)
	}
	return nil
}

type memInt64Builder struct {
	limit  int
	values []int64
}

func (b *memInt64Builder) Reserve(n int) error {
	if err := checkLimit(b.limit, len(b.values), n); err != nil {
		return err
	}
	if cap(b.values)-len(b.values) < n {
		grown := make([]int64, len(b.values), len(b.values)+n)
		copy(grown, b.values)
		b.values = grown
	}
	return nil
}

func (b *memInt64Builder) AppendValues(values []int64) error {
	if err := checkLimit(b.limit, len(b.values), len(values)); err != nil {
		return err
	}
	b.values = append(b.values, values...)
	return nil
}

func (b *memInt64Builder) Finish() (Column, error) {
	col := NewInt64Column(b.values, nil)
	b.values = nil
	return col, nil
}

type memFloat64Builder struct {
	limit  int
	values []float64
}

func (b *memFloat64Builder) Reserve(n int) error {
	if err := checkLimit(b.limit, len(b.values), n); err != nil {
		return err
	}
	if cap(b.values)-len(b.values) < n {
		grown := make([]float64, len(b.values), len(b.values)+n)
		copy(grown, b.values)
		b.values = grown
	}
	return nil
}

func (b *memFloat64Builder) AppendValues(values []float64) error {
	if err := checkLimit(b.limit, len(b.values), len(values)); err != nil {
		return err
	}
	b.values = append(b.values, values...)
	return nil
}

func (b *memFloat64Builder) Finish() (Column, error) {
	col := NewFloat64Column(b.values, nil)
	b.values = nil
	return col, nil
}
