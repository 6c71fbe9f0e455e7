package arrowcol

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// Allocator implements columnar.Allocator on top of an Arrow memory pool
type Allocator struct {
	mem memory.Allocator
}

// NewAllocator creates an allocator drawing from mem (memory.DefaultAllocator when nil)
func NewAllocator(mem memory.Allocator) *Allocator {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Allocator{mem: mem}
}

// Memory returns the underlying pool
func (a *Allocator) Memory() memory.Allocator { return a.mem }

// NewInt64Builder implements columnar.Allocator
func (a *Allocator) NewInt64Builder() columnar.Int64Builder {
	return &int64Builder{b: array.NewInt64Builder(a.mem)}
}

// NewFloat64Builder implements columnar.Allocator
func (a *Allocator) NewFloat64Builder() columnar.Float64Builder {
	return &float64Builder{b: array.NewFloat64Builder(a.mem)}
}

// NewBatch assembles cols into an Arrow record. Columns that are not
// Arrow-backed are copied into new arrays. The record takes its own reference
// to every array, so callers still release the columns they built.
func (a *Allocator) NewBatch(schema *columnar.Schema, cols []columnar.Column) (columnar.Batch, error) {
	rows, err := columnar.ValidateBatch(schema, cols)
	if err != nil {
		return nil, err
	}

	arrs := make([]arrow.Array, 0, len(cols))
	defer func() {
		for _, arr := range arrs {
			arr.Release()
		}
	}()
	for _, c := range cols {
		arr, err := a.ToArray(c)
		if err != nil {
			return nil, err
		}
		arrs = append(arrs, arr)
	}

	var rec arrow.Record
	if err := guard("record assembly", func() {
		rec = array.NewRecord(ToArrowSchema(schema), arrs, int64(rows))
	}); err != nil {
		return nil, err
	}
	return &recordBatch{rec: rec, schema: schema, cols: wrapAll(rec.Columns())}, nil
}

// ToArray returns an Arrow array holding c's values, copying when c is not
// Arrow-backed. The caller owns one reference to the result and must release it.
func (a *Allocator) ToArray(c columnar.Column) (arrow.Array, error) {
	if ac, ok := c.(Column); ok {
		arr := ac.Array()
		arr.Retain()
		return arr, nil
	}

	valid := validity(c)
	var arr arrow.Array
	err := guard("column copy", func() {
		switch c.DataType() {
		case columnar.Int64:
			col, ok := c.(columnar.Int64Column)
			if !ok {
				return
			}
			b := array.NewInt64Builder(a.mem)
			defer b.Release()
			b.AppendValues(col.Int64Values(), valid)
			arr = b.NewArray()
		case columnar.Float64:
			col, ok := c.(columnar.Float64Column)
			if !ok {
				return
			}
			b := array.NewFloat64Builder(a.mem)
			defer b.Release()
			b.AppendValues(col.Float64Values(), valid)
			arr = b.NewArray()
		}
	})
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return nil, errors.Newf(errors.ErrorTypeShape, "column of type %s has no value accessor", c.DataType())
	}
	return arr, nil
}

func validity(c columnar.Column) []bool {
	if c.NullN() == 0 {
		return nil
	}
	valid := make([]bool, c.Len())
	for i := range valid {
		valid[i] = !c.IsNull(i)
	}
	return valid
}

func wrapAll(arrs []arrow.Array) []columnar.Column {
	cols := make([]columnar.Column, len(arrs))
	for i, arr := range arrs {
		col, _ := WrapArray(arr)
		cols[i] = col
	}
	return cols
}

// guard converts a panic raised by the Arrow allocator into an allocation error.
func guard(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrorTypeAllocation, fmt.Sprintf("arrow %s failed: %v", op, r))
		}
	}()
	fn()
	return nil
}

type int64Builder struct {
	b *array.Int64Builder
}

func (ib *int64Builder) Reserve(n int) error {
	return guard("reserve", func() { ib.b.Reserve(n) })
}

func (ib *int64Builder) AppendValues(values []int64) error {
	return guard("append", func() { ib.b.AppendValues(values, nil) })
}

func (ib *int64Builder) Finish() (columnar.Column, error) {
	defer ib.b.Release()
	var arr *array.Int64
	if err := guard("finish", func() { arr = ib.b.NewInt64Array() }); err != nil {
		return nil, err
	}
	return builtInt64Column{int64Column{arr: arr}}, nil
}

type float64Builder struct {
	b *array.Float64Builder
}

func (fb *float64Builder) Reserve(n int) error {
	return guard("reserve", func() { fb.b.Reserve(n) })
}

func (fb *float64Builder) AppendValues(values []float64) error {
	return guard("append", func() { fb.b.AppendValues(values, nil) })
}

func (fb *float64Builder) Finish() (columnar.Column, error) {
	defer fb.b.Release()
	var arr *array.Float64
	if err := guard("finish", func() { arr = fb.b.NewFloat64Array() }); err != nil {
		return nil, err
	}
	return builtFloat64Column{float64Column{arr: arr}}, nil
}
