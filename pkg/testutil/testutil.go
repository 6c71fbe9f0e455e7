// Package testutil provides testing utilities for arrowfeat
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext returns a context with a 30-second timeout, cancelled when the
// test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CheckedAllocator returns an Arrow allocator that fails the test if any
// buffer it handed out is still referenced when the test completes.
func CheckedAllocator(t *testing.T) *memory.CheckedAllocator {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() { mem.AssertSize(t, 0) })
	return mem
}

// Float64Record builds a record of non-null float64 columns named by names.
// The caller must release it.
func Float64Record(mem memory.Allocator, names []string, cols ...[]float64) arrow.Record {
	fields := make([]arrow.Field, len(names))
	for i, n := range names {
		fields[i] = arrow.Field{Name: n, Type: arrow.PrimitiveTypes.Float64}
	}
	rb := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer rb.Release()
	for i, c := range cols {
		rb.Field(i).(*array.Float64Builder).AppendValues(c, nil)
	}
	return rb.NewRecord()
}

// Float64s concatenates the values of a float64 chunked column
func Float64s(c *arrow.Chunked) []float64 {
	out := make([]float64, 0, c.Len())
	for _, chunk := range c.Chunks() {
		out = append(out, chunk.(*array.Float64).Float64Values()...)
	}
	return out
}

// Int64s concatenates the values of an int64 chunked column
func Int64s(c *arrow.Chunked) []int64 {
	out := make([]int64, 0, c.Len())
	for _, chunk := range c.Chunks() {
		out = append(out, chunk.(*array.Int64).Int64Values()...)
	}
	return out
}
