package arrowutils

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/columnar/arrowcol"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
	"github.com/ajitpratap0/arrowfeat/pkg/features"
	"github.com/ajitpratap0/arrowfeat/pkg/testutil"
)

var bookSchema = arrow.NewSchema([]arrow.Field{
	{Name: "q0", Type: arrow.PrimitiveTypes.Float64},
	{Name: "q1", Type: arrow.PrimitiveTypes.Float64},
	{Name: "w0", Type: arrow.PrimitiveTypes.Float64},
	{Name: "w1", Type: arrow.PrimitiveTypes.Float64},
}, nil)

func bookRecord(t *testing.T, scale float64) arrow.Record {
	t.Helper()
	return bookRecordFrom(t, memory.NewGoAllocator(), scale)
}

func bookRecordFrom(t *testing.T, mem memory.Allocator, scale float64) arrow.Record {
	t.Helper()
	rb := array.NewRecordBuilder(mem, bookSchema)
	defer rb.Release()
	rb.Field(0).(*array.Float64Builder).AppendValues([]float64{2 * scale, 1}, nil)
	rb.Field(1).(*array.Float64Builder).AppendValues([]float64{3 * scale, 1}, nil)
	rb.Field(2).(*array.Float64Builder).AppendValues([]float64{10, 5}, nil)
	rb.Field(3).(*array.Float64Builder).AppendValues([]float64{10, 5}, nil)
	return rb.NewRecord()
}

func float64s(t *testing.T, arr arrow.Array) []float64 {
	t.Helper()
	f, ok := arr.(*array.Float64)
	require.True(t, ok)
	return f.Float64Values()
}

func TestProcessRecordBatch(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Int64},
		{Name: "b", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "c", Type: arrow.PrimitiveTypes.Int64},
		{Name: "d", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer rb.Release()
	rb.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3, -1}, nil)
	rb.Field(1).(*array.Int64Builder).AppendValues([]int64{3, 5, 7, 9}, []bool{true, true, true, false})
	rb.Field(2).(*array.Int64Builder).AppendValues([]int64{5, 0, 9, 1}, nil)
	rb.Field(3).(*array.Int64Builder).AppendValues([]int64{4, 7, 2, -3}, nil)
	rec := rb.NewRecord()
	defer rec.Release()

	chunked, err := ProcessRecordBatch(rec)
	require.NoError(t, err)
	defer chunked.Release()

	require.Len(t, chunked.Chunks(), 1)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, chunked.DataType())
	assert.Equal(t, []int64{3, 2, 3, 1}, chunked.Chunk(0).(*array.Int64).Int64Values())
}

func TestProcessRecordBatchRejectsWrongShape(t *testing.T) {
	rec := bookRecord(t, 1)
	defer rec.Release()

	_, err := ProcessRecordBatch(rec)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeShape))
}

func TestExtractDepthFeature(t *testing.T) {
	rec := bookRecord(t, 1)
	defer rec.Release()

	out, err := ExtractDepthFeature(rec, []float64{15, 40})
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, int64(2), out.NumCols())
	assert.Equal(t, "feature_depth_0", out.ColumnName(0))
	assert.Equal(t, "feature_depth_1", out.ColumnName(1))
	assert.Equal(t, []float64{0, 1}, float64s(t, out.Column(0)))
	assert.Equal(t, []float64{0.5, 1}, float64s(t, out.Column(1)))

	fell, err := ExtractDepthFeature(rec, []float64{1000})
	require.NoError(t, err)
	defer fell.Release()
	assert.Equal(t, []float64{3, 1}, float64s(t, fell.Column(0)))
}

func TestExtractDepthFeatureErrors(t *testing.T) {
	rec := bookRecord(t, 1)
	defer rec.Release()

	_, err := ExtractDepthFeature(rec, []float64{5, 2})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = ExtractDepthFeature(rec.NewSlice(0, 1), nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	odd := array.NewRecord(
		arrow.NewSchema(bookSchema.Fields()[:3], nil),
		rec.Columns()[:3], rec.NumRows())
	defer odd.Release()
	_, err = ExtractDepthFeature(odd, []float64{1})
	assert.True(t, errors.IsType(err, errors.ErrorTypeShape))
}

func TestExtractDepthFeatureFromTable(t *testing.T) {
	recs := make([]arrow.Record, 5)
	for i := range recs {
		recs[i] = bookRecord(t, float64(i+1))
		defer recs[i].Release()
	}
	tbl := array.NewTableFromRecords(bookSchema, recs)
	defer tbl.Release()

	out, err := ExtractDepthFeatureFromTable(context.Background(), tbl, []float64{15, 40},
		features.WithMaxWorkers(4))
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, int64(10), out.NumRows())
	assert.Equal(t, int64(2), out.NumCols())
	chunks := out.Column(0).Data().Chunks()
	require.Len(t, chunks, 5)

	// every chunk matches the single-record result for the same input
	for i, rec := range recs {
		want, err := ExtractDepthFeature(rec, []float64{15, 40})
		require.NoError(t, err)
		assert.Equal(t, float64s(t, want.Column(0)), float64s(t, chunks[i]), "chunk %d", i)
		assert.Equal(t, float64s(t, want.Column(1)), float64s(t, out.Column(1).Data().Chunk(i)), "chunk %d", i)
		want.Release()
	}
}

func TestExtractDepthFeatureFromTableErrors(t *testing.T) {
	ctx := context.Background()
	rec := bookRecord(t, 1)
	defer rec.Release()
	tbl := array.NewTableFromRecords(bookSchema, []arrow.Record{rec})
	defer tbl.Release()

	_, err := ExtractDepthFeatureFromTable(ctx, tbl, []float64{5, 2})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	for _, w := range []int{0, -1} {
		_, err = ExtractDepthFeatureFromTable(ctx, tbl, []float64{1}, features.WithMaxWorkers(w))
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), "workers=%d", w)
	}

	empty := array.NewTableFromRecords(bookSchema, nil)
	defer empty.Release()
	_, err = ExtractDepthFeatureFromTable(ctx, empty, []float64{1})
	assert.True(t, errors.IsType(err, errors.ErrorTypeEmptyInput))

	_, err = ExtractDepthFeatureFromTable(ctx, nil, []float64{1})
	assert.True(t, errors.IsType(err, errors.ErrorTypeEmptyInput))
}

func TestCountPositiveOddTable(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Int64},
		{Name: "b", Type: arrow.PrimitiveTypes.Int64},
		{Name: "c", Type: arrow.PrimitiveTypes.Int64},
		{Name: "d", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer rb.Release()
	for i := 0; i < 4; i++ {
		rb.Field(i).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	}
	rec := rb.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec, rec})
	defer tbl.Release()

	out, err := CountPositiveOddTable(context.Background(), tbl)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, int64(4), out.NumRows())
	assert.Equal(t, "odd_count", out.Schema().Field(0).Name)
	assert.Equal(t, []int64{4, 0}, out.Column(0).Data().Chunk(1).(*array.Int64).Int64Values())
}

func TestExtractDepthFeatureFromTableAllocators(t *testing.T) {
	ctx := context.Background()
	thresholds := []float64{15, 40}

	in := testutil.CheckedAllocator(t)
	recs := make([]arrow.Record, 3)
	for i := range recs {
		recs[i] = bookRecordFrom(t, in, float64(i+1))
	}
	tbl := array.NewTableFromRecords(bookSchema, recs)
	for _, r := range recs {
		r.Release()
	}
	defer tbl.Release()

	want, err := ExtractDepthFeatureFromTable(ctx, tbl, thresholds)
	require.NoError(t, err)
	defer want.Release()

	allocators := map[string]columnar.Allocator{
		"in-memory": columnar.NewMemAllocator(),
		"arrow":     arrowcol.NewAllocator(testutil.CheckedAllocator(t)),
	}
	for name, alloc := range allocators {
		got, err := ExtractDepthFeatureFromTable(ctx, tbl, thresholds,
			features.WithAllocator(alloc), features.WithMaxWorkers(2))
		require.NoError(t, err, name)

		require.Equal(t, want.NumRows(), got.NumRows(), name)
		require.Equal(t, want.NumCols(), got.NumCols(), name)
		for i := 0; i < int(want.NumCols()); i++ {
			assert.True(t, array.ChunkedEqual(want.Column(i).Data(), got.Column(i).Data()), "%s column %d", name, i)
		}
		got.Release()
	}
}

func TestCountPositiveOddTableReleasesOutput(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Int64},
		{Name: "b", Type: arrow.PrimitiveTypes.Int64},
		{Name: "c", Type: arrow.PrimitiveTypes.Int64},
		{Name: "d", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	in := testutil.CheckedAllocator(t)
	rb := array.NewRecordBuilder(in, schema)
	for i := 0; i < 4; i++ {
		rb.Field(i).(*array.Int64Builder).AppendValues([]int64{1, 3, -5}, nil)
	}
	rec := rb.NewRecord()
	rb.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec, rec, rec})
	rec.Release()
	defer tbl.Release()

	out, err := CountPositiveOddTable(context.Background(), tbl,
		features.WithAllocator(arrowcol.NewAllocator(testutil.CheckedAllocator(t))))
	require.NoError(t, err)
	assert.Equal(t, int64(9), out.NumRows())
	assert.Equal(t, []int64{4, 4, 0}, out.Column(0).Data().Chunk(2).(*array.Int64).Int64Values())
	out.Release()
}

func TestRecordEntryPointsLeaveInputBalanced(t *testing.T) {
	rec := bookRecordFrom(t, testutil.CheckedAllocator(t), 1)
	defer rec.Release()

	out, err := ExtractDepthFeature(rec, []float64{15})
	require.NoError(t, err)
	out.Release()

	_, err = ProcessRecordBatch(rec)
	assert.True(t, errors.IsType(err, errors.ErrorTypeShape))
}
