package arrowcol

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
	"github.com/ajitpratap0/arrowfeat/pkg/testutil"
)

// failingAllocator panics on every allocation, as a pool at its limit does.
type failingAllocator struct{}

func (failingAllocator) Allocate(int) []byte           { panic("out of memory") }
func (failingAllocator) Reallocate(int, []byte) []byte { panic("out of memory") }
func (failingAllocator) Free([]byte)                   {}

func newRecord(t *testing.T, ints []int64, floats []float64, valid []bool) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "i", Type: arrow.PrimitiveTypes.Int64},
		{Name: "f", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer rb.Release()
	rb.Field(0).(*array.Int64Builder).AppendValues(ints, nil)
	rb.Field(1).(*array.Float64Builder).AppendValues(floats, valid)
	return rb.NewRecord()
}

func TestWrap(t *testing.T) {
	rec := newRecord(t, []int64{1, 2, 3}, []float64{0.5, 1.5, 2.5}, []bool{true, false, true})
	defer rec.Release()

	batch, err := Wrap(rec)
	require.NoError(t, err)
	defer columnar.ReleaseBatches(batch)
	assert.Equal(t, 3, batch.NumRows())
	assert.Equal(t, 2, batch.NumCols())

	schema := batch.Schema()
	assert.Equal(t, columnar.Field{Name: "i", Type: columnar.Int64}, schema.Field(0))
	assert.Equal(t, columnar.Field{Name: "f", Type: columnar.Float64, Nullable: true}, schema.Field(1))

	ints := batch.Column(0).(columnar.Int64Column)
	assert.Equal(t, []int64{1, 2, 3}, ints.Int64Values())
	floats := batch.Column(1).(columnar.Float64Column)
	assert.True(t, floats.IsNull(1))
	assert.Equal(t, 1, floats.NullN())
	assert.Equal(t, 0.5, floats.Float64Values()[0])

	back, err := Record(batch, nil)
	require.NoError(t, err)
	defer back.Release()
	assert.Same(t, rec, back)
}

func TestWrapUnsupportedType(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "s", Type: arrow.BinaryTypes.String}}, nil)
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer rb.Release()
	rb.Field(0).(*array.StringBuilder).Append("x")
	rec := rb.NewRecord()
	defer rec.Release()

	_, err := Wrap(rec)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeShape))

	_, err = Wrap(nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeShape))
}

func TestAllocatorBuildsRecord(t *testing.T) {
	alloc := NewAllocator(testutil.CheckedAllocator(t))

	fb := alloc.NewFloat64Builder()
	require.NoError(t, fb.Reserve(2))
	require.NoError(t, fb.AppendValues([]float64{1.25, 2.5}))
	fcol, err := fb.Finish()
	require.NoError(t, err)
	defer columnar.ReleaseColumns(fcol)

	// not arrow-backed, copied with its validity
	icol := columnar.NewInt64Column([]int64{7, 8}, []bool{true, false})

	schema := columnar.NewSchema(
		columnar.Field{Name: "x", Type: columnar.Float64},
		columnar.Field{Name: "y", Type: columnar.Int64, Nullable: true},
	)
	batch, err := alloc.NewBatch(schema, []columnar.Column{fcol, icol})
	require.NoError(t, err)
	defer columnar.ReleaseBatches(batch)

	rec, err := Record(batch, alloc)
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, "x", rec.ColumnName(0))
	assert.Equal(t, []float64{1.25, 2.5}, rec.Column(0).(*array.Float64).Float64Values())
	assert.True(t, rec.Column(1).IsNull(1))
	assert.Equal(t, int64(7), rec.Column(1).(*array.Int64).Value(0))
}

func TestToArrayCopiesInMemoryColumns(t *testing.T) {
	alloc := NewAllocator(testutil.CheckedAllocator(t))

	farr, err := alloc.ToArray(columnar.NewFloat64Column([]float64{1.5, 2.5}, []bool{true, false}))
	require.NoError(t, err)
	defer farr.Release()
	require.Equal(t, arrow.PrimitiveTypes.Float64, farr.DataType())
	assert.Equal(t, 2, farr.Len())
	assert.Equal(t, 1.5, farr.(*array.Float64).Value(0))
	assert.True(t, farr.IsNull(1))

	iarr, err := alloc.ToArray(columnar.NewInt64Column([]int64{4, 5, 6}, nil))
	require.NoError(t, err)
	defer iarr.Release()
	require.Equal(t, arrow.PrimitiveTypes.Int64, iarr.DataType())
	assert.Equal(t, []int64{4, 5, 6}, iarr.(*array.Int64).Int64Values())

	schema := columnar.NewSchema(columnar.Field{Name: "x", Type: columnar.Float64})
	mem, err := columnar.NewBatch(schema, []columnar.Column{columnar.NewFloat64Column([]float64{3, 4}, nil)})
	require.NoError(t, err)

	batch, err := alloc.NewBatch(schema, []columnar.Column{mem.Column(0)})
	require.NoError(t, err)
	defer columnar.ReleaseBatches(batch)
	assert.Equal(t, 2, batch.NumRows())
	assert.Equal(t, []float64{3, 4}, batch.Column(0).(columnar.Float64Column).Float64Values())

	rec, err := Record(mem, alloc)
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, []float64{3, 4}, rec.Column(0).(*array.Float64).Float64Values())
}

func TestAllocatorReleasesEverything(t *testing.T) {
	alloc := NewAllocator(testutil.CheckedAllocator(t))
	schema := columnar.NewSchema(columnar.Field{Name: "v", Type: columnar.Float64})

	fb := alloc.NewFloat64Builder()
	require.NoError(t, fb.AppendValues([]float64{1, 2, 3}))
	fcol, err := fb.Finish()
	require.NoError(t, err)

	built, err := alloc.NewBatch(schema, []columnar.Column{fcol})
	require.NoError(t, err)
	columnar.ReleaseColumns(fcol)

	mem, err := columnar.NewBatch(schema, []columnar.Column{columnar.NewFloat64Column([]float64{4}, nil)})
	require.NoError(t, err)
	ct, err := columnar.NewTable([]columnar.Batch{built, mem})
	require.NoError(t, err)

	tbl, err := ToTable(ct, alloc)
	require.NoError(t, err)
	columnar.ReleaseBatches(ct.Batches()...)

	assert.Equal(t, int64(4), tbl.NumRows())
	batches, err := FromTable(tbl)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	Release(batches)
	tbl.Release()
}

func TestAllocatorRejectsBadShape(t *testing.T) {
	alloc := NewAllocator(nil)
	schema := columnar.NewSchema(columnar.Field{Name: "x", Type: columnar.Float64})

	_, err := alloc.NewBatch(schema, []columnar.Column{columnar.NewInt64Column([]int64{1}, nil)})
	assert.True(t, errors.IsType(err, errors.ErrorTypeShape))
}

func TestAllocatorPanicBecomesAllocationError(t *testing.T) {
	alloc := NewAllocator(failingAllocator{})

	err := alloc.NewFloat64Builder().Reserve(1024)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeAllocation, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "out of memory")

	err = alloc.NewInt64Builder().AppendValues([]int64{1, 2, 3})
	assert.Equal(t, errors.ErrorTypeAllocation, errors.TypeOf(err))

	_, err = alloc.ToArray(columnar.NewFloat64Column([]float64{1}, nil))
	assert.Equal(t, errors.ErrorTypeAllocation, errors.TypeOf(err))
}

func TestSplitAndSliceTable(t *testing.T) {
	r1 := newRecord(t, []int64{1, 2}, []float64{1, 2}, nil)
	r2 := newRecord(t, []int64{3, 4, 5}, []float64{3, 4, 5}, nil)
	defer r1.Release()
	defer r2.Release()

	tbl, err := NewTable(r1.Schema(), []arrow.Record{r1, r2})
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, int64(5), tbl.NumRows())

	recs := SplitTable(tbl)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(2), recs[0].NumRows())
	assert.Equal(t, int64(3), recs[1].NumRows())
	assert.Equal(t, []int64{3, 4, 5}, recs[1].Column(0).(*array.Int64).Int64Values())
	for _, r := range recs {
		r.Release()
	}

	recs = SliceTable(tbl, 2)
	rows := make([]int64, len(recs))
	for i, r := range recs {
		rows[i] = r.NumRows()
		r.Release()
	}
	assert.Equal(t, []int64{2, 2, 1}, rows)

	batches, err := FromTable(tbl)
	require.NoError(t, err)
	defer Release(batches)
	require.Len(t, batches, 2)
	assert.Equal(t, 3, batches[1].NumRows())
}

func TestNewTableRejectsMismatchedSchema(t *testing.T) {
	r1 := newRecord(t, []int64{1}, []float64{1}, nil)
	defer r1.Release()
	other := arrow.NewSchema([]arrow.Field{{Name: "z", Type: arrow.PrimitiveTypes.Int64}}, nil)

	_, err := NewTable(other, []arrow.Record{r1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeShape))
}

func TestToTable(t *testing.T) {
	schema := columnar.NewSchema(columnar.Field{Name: "v", Type: columnar.Float64})
	b1, err := columnar.NewBatch(schema, []columnar.Column{columnar.NewFloat64Column([]float64{1, 2}, nil)})
	require.NoError(t, err)
	b2, err := columnar.NewBatch(schema, []columnar.Column{columnar.NewFloat64Column([]float64{3}, nil)})
	require.NoError(t, err)
	ct, err := columnar.NewTable([]columnar.Batch{b1, b2})
	require.NoError(t, err)

	tbl, err := ToTable(ct, NewAllocator(testutil.CheckedAllocator(t)))
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, int64(3), tbl.NumRows())
	chunks := tbl.Column(0).Data().Chunks()
	require.Len(t, chunks, 2)
	assert.Equal(t, []float64{3}, chunks[1].(*array.Float64).Float64Values())
}

func TestSliceTableSkipsEmptyChunks(t *testing.T) {
	empty := newRecord(t, nil, nil, nil)
	r1 := newRecord(t, []int64{1, 2}, []float64{1, 2}, nil)
	r2 := newRecord(t, []int64{3, 4, 5}, []float64{3, 4, 5}, nil)
	defer empty.Release()
	defer r1.Release()
	defer r2.Release()

	tbl, err := NewTable(r1.Schema(), []arrow.Record{empty, r1, empty, r2, empty})
	require.NoError(t, err)
	defer tbl.Release()
	require.Len(t, tbl.Column(0).Data().Chunks(), 5)

	for _, size := range []int64{0, 2} {
		recs := SliceTable(tbl, size)
		var rows []int64
		for _, r := range recs {
			rows = append(rows, r.NumRows())
			r.Release()
		}
		if size == 0 {
			assert.Equal(t, []int64{2, 3}, rows)
		} else {
			assert.Equal(t, []int64{2, 2, 1}, rows)
		}
	}

	only, err := NewTable(r1.Schema(), []arrow.Record{empty, empty})
	require.NoError(t, err)
	defer only.Release()
	assert.Empty(t, SplitTable(only))
}
