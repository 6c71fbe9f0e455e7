// Package arrowcol backs the columnar capability interfaces with Apache Arrow
// arrays, records and tables.
//
// Wrapping is zero-copy: a wrapped record exposes its int64 and float64 value
// buffers directly. Builders allocate from a memory.Allocator and report
// allocator failures as allocation errors instead of panicking.
package arrowcol

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// Column is implemented by every column backed by an Arrow array
type Column interface {
	columnar.Column
	Array() arrow.Array
}

type int64Column struct {
	arr *array.Int64
}

func (c int64Column) Len() int                    { return c.arr.Len() }
func (c int64Column) DataType() columnar.DataType { return columnar.Int64 }
func (c int64Column) IsNull(i int) bool           { return c.arr.IsNull(i) }
func (c int64Column) NullN() int                  { return c.arr.NullN() }
func (c int64Column) Int64Values() []int64        { return c.arr.Int64Values() }
func (c int64Column) Array() arrow.Array          { return c.arr }

type float64Column struct {
	arr *array.Float64
}

func (c float64Column) Len() int                    { return c.arr.Len() }
func (c float64Column) DataType() columnar.DataType { return columnar.Float64 }
func (c float64Column) IsNull(i int) bool           { return c.arr.IsNull(i) }
func (c float64Column) NullN() int                  { return c.arr.NullN() }
func (c float64Column) Float64Values() []float64    { return c.arr.Float64Values() }
func (c float64Column) Array() arrow.Array          { return c.arr }

// builtInt64Column and builtFloat64Column own the reference their builder
// handed out and drop it on Release. Wrapped columns borrow from their record
// and do not implement columnar.Releaser.
type builtInt64Column struct{ int64Column }

func (c builtInt64Column) Release() { c.arr.Release() }

type builtFloat64Column struct{ float64Column }

func (c builtFloat64Column) Release() { c.arr.Release() }

// WrapArray exposes an Arrow array as a column. Only int64 and float64
// arrays are supported.
func WrapArray(arr arrow.Array) (Column, error) {
	switch a := arr.(type) {
	case *array.Int64:
		return int64Column{arr: a}, nil
	case *array.Float64:
		return float64Column{arr: a}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeShape, "unsupported arrow type %s", arr.DataType())
	}
}

// recordBatch is a Batch view over an arrow.Record
type recordBatch struct {
	rec    arrow.Record
	schema *columnar.Schema
	cols   []columnar.Column
}

func (b *recordBatch) Schema() *columnar.Schema     { return b.schema }
func (b *recordBatch) NumRows() int                 { return int(b.rec.NumRows()) }
func (b *recordBatch) NumCols() int                 { return len(b.cols) }
func (b *recordBatch) Column(i int) columnar.Column { return b.cols[i] }

// Release drops the batch's reference to its record
func (b *recordBatch) Release() { b.rec.Release() }

// Wrap exposes an Arrow record as a Batch without copying. Columns of any
// type other than int64 or float64 are a shape error. The batch retains rec;
// release it with columnar.ReleaseBatches.
func Wrap(rec arrow.Record) (columnar.Batch, error) {
	if rec == nil {
		return nil, errors.New(errors.ErrorTypeShape, "record is nil")
	}
	schema, err := FromArrowSchema(rec.Schema())
	if err != nil {
		return nil, err
	}

	cols := make([]columnar.Column, rec.NumCols())
	for i := range cols {
		col, err := WrapArray(rec.Column(i))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeShape, "cannot wrap column "+rec.ColumnName(i)).
				WithDetail("column_index", i)
		}
		cols[i] = col
	}
	rec.Retain()
	return &recordBatch{rec: rec, schema: schema, cols: cols}, nil
}

// FromArrowSchema converts an Arrow schema of int64/float64 fields
func FromArrowSchema(s *arrow.Schema) (*columnar.Schema, error) {
	fields := make([]columnar.Field, s.NumFields())
	for i, f := range s.Fields() {
		var typ columnar.DataType
		switch f.Type.ID() {
		case arrow.INT64:
			typ = columnar.Int64
		case arrow.FLOAT64:
			typ = columnar.Float64
		default:
			return nil, errors.Newf(errors.ErrorTypeShape, "field %d (%s) has unsupported type %s",
				i, f.Name, f.Type).WithDetail("column_index", i)
		}
		fields[i] = columnar.Field{Name: f.Name, Type: typ, Nullable: f.Nullable}
	}
	return columnar.NewSchema(fields...), nil
}

// ToArrowSchema converts a columnar schema to its Arrow equivalent
func ToArrowSchema(s *columnar.Schema) *arrow.Schema {
	fields := make([]arrow.Field, s.NumFields())
	for i, f := range s.Fields() {
		fields[i] = arrow.Field{Name: f.Name, Type: arrowType(f.Type), Nullable: f.Nullable}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t columnar.DataType) arrow.DataType {
	if t == columnar.Int64 {
		return arrow.PrimitiveTypes.Int64
	}
	return arrow.PrimitiveTypes.Float64
}
