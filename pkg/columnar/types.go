// Package columnar defines the minimal columnar capability the feature kernels
// consume: typed column reads, typed column builds and batch/table assembly.
package columnar

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// DataType represents the element type of a column
type DataType int

const (
	// Int64 is a signed 64-bit integer column
	Int64 DataType = iota
	// Float64 is a 64-bit IEEE 754 column
	Float64
)

// String returns the type name used in schemas and error messages
func (t DataType) String() string {
	switch t {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// Field describes one column of a schema
type Field struct {
	Name     string
	Type     DataType
	Nullable bool
}

// Schema is an ordered, immutable list of fields
type Schema struct {
	fields []Field
}

// NewSchema creates a schema from fields
func NewSchema(fields ...Field) *Schema {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return &Schema{fields: cp}
}

// Fields returns a copy of the schema's fields
func (s *Schema) Fields() []Field {
	cp := make([]Field, len(s.fields))
	copy(cp, s.fields)
	return cp
}

// Field returns the i-th field
func (s *Schema) Field(i int) Field { return s.fields[i] }

// NumFields returns the number of fields
func (s *Schema) NumFields() int { return len(s.fields) }

// Equal reports whether two schemas have the same names, types and nullability
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.fields) != len(o.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.Name + ": " + f.Type.String()
	}
	return "schema<" + strings.Join(parts, ", ") + ">"
}

// Column is an immutable typed sequence with per-element validity
type Column interface {
	Len() int
	DataType() DataType
	IsNull(i int) bool
	NullN() int
}

// Int64Column exposes the raw values of an int64 column.
// Values at null positions are unspecified.
type Int64Column interface {
	Column
	Int64Values() []int64
}

// Float64Column exposes the raw values of a float64 column.
// Values at null positions are unspecified.
type Float64Column interface {
	Column
	Float64Values() []float64
}

// Batch is a rectangular, immutable block of equal-length columns
type Batch interface {
	Schema() *Schema
	NumRows() int
	NumCols() int
	Column(i int) Column
}

// Int64Builder accumulates int64 values into a new column
type Int64Builder interface {
	Reserve(n int) error
	AppendValues(values []int64) error
	Finish() (Column, error)
}

// Float64Builder accumulates float64 values into a new column
type Float64Builder interface {
	Reserve(n int) error
	AppendValues(values []float64) error
	Finish() (Column, error)
}

// Allocator creates builders and assembles batches for one backing library
type Allocator interface {
	NewInt64Builder() Int64Builder
	NewFloat64Builder() Float64Builder
	NewBatch(schema *Schema, cols []Column) (Batch, error)
}

// Float64View returns the column's values as float64. Float64 columns are
// returned without copying; int64 columns are widened into a new slice.
func Float64View(c Column) ([]float64, error) {
	switch c.DataType() {
	case Float64:
		if col, ok := c.(Float64Column); ok {
			return col.Float64Values(), nil
		}
	case Int64:
		if col, ok := c.(Int64Column); ok {
			src := col.Int64Values()
			out := make([]float64, len(src))
			for i, v := range src {
				out[i] = float64(v)
			}
			return out, nil
		}
	}
	return nil, errors.Newf(errors.ErrorTypeShape, "column of type %s is not numeric", c.DataType())
}

// ValidateBatch checks that cols match schema and share one length.
// It is shared by Allocator implementations.
func ValidateBatch(schema *Schema, cols []Column) (int, error) {
	if schema == nil {
		return 0, errors.New(errors.ErrorTypeShape, "schema is required")
	}
	if len(cols) != schema.NumFields() {
		return 0, errors.Newf(errors.ErrorTypeShape, "schema has %d fields but %d columns were supplied",
			schema.NumFields(), len(cols))
	}
	rows := 0
	for i, c := range cols {
		if c == nil {
			return 0, errors.Newf(errors.ErrorTypeShape, "column %d is nil", i)
		}
		f := schema.Field(i)
		if c.DataType() != f.Type {
			return 0, errors.Newf(errors.ErrorTypeShape, "column %d (%s) is %s, schema says %s",
				i, f.Name, c.DataType(), f.Type)
		}
		if i == 0 {
			rows = c.Len()
		} else if c.Len() != rows {
			return 0, errors.Newf(errors.ErrorTypeShape, "column %d (%s) has %d rows, expected %d",
				i, f.Name, c.Len(), rows)
		}
	}
	return rows, nil
}

// Releaser is implemented by columns and batches that hold reference-counted
// buffers. Slice-backed values do not implement it.
type Releaser interface {
	Release()
}

// ReleaseColumns releases every column that implements Releaser. Nil entries
// are skipped.
func ReleaseColumns(cols ...Column) {
	for _, c := range cols {
		if r, ok := c.(Releaser); ok {
			r.Release()
		}
	}
}

// ReleaseBatches releases every batch that implements Releaser. Nil entries
// are skipped.
func ReleaseBatches(batches ...Batch) {
	for _, b := range batches {
		if r, ok := b.(Releaser); ok {
			r.Release()
		}
	}
}
