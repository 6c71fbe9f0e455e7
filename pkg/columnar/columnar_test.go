package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

func twoColSchema() *Schema {
	return NewSchema(
		Field{Name: "a", Type: Int64},
		Field{Name: "b", Type: Float64, Nullable: true},
	)
}

func TestNewBatch(t *testing.T) {
	schema := twoColSchema()

	batch, err := NewBatch(schema, []Column{
		NewInt64Column([]int64{1, 2, 3}, nil),
		NewFloat64Column([]float64{0.5, 0, 1.5}, []bool{true, false, true}),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, batch.NumRows())
	assert.Equal(t, 2, batch.NumCols())
	assert.True(t, batch.Schema().Equal(schema))
	assert.True(t, batch.Column(1).IsNull(1))
	assert.Equal(t, 1, batch.Column(1).NullN())
	assert.Equal(t, 0, batch.Column(0).NullN())
}

func TestNewBatchShapeErrors(t *testing.T) {
	schema := twoColSchema()

	tests := []struct {
		name string
		cols []Column
	}{
		{"too few columns", []Column{NewInt64Column([]int64{1}, nil)}},
		{"wrong type", []Column{
			NewFloat64Column([]float64{1}, nil),
			NewFloat64Column([]float64{1}, nil),
		}},
		{"ragged", []Column{
			NewInt64Column([]int64{1, 2}, nil),
			NewFloat64Column([]float64{1}, nil),
		}},
		{"nil column", []Column{NewInt64Column([]int64{1}, nil), nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBatch(schema, tt.cols)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeShape))
		})
	}

	_, err := NewBatch(nil, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeShape))
}

func TestFloat64View(t *testing.T) {
	f := NewFloat64Column([]float64{1.5, 2.5}, nil)
	got, err := Float64View(f)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, got)

	i := NewInt64Column([]int64{-3, 7}, nil)
	got, err = Float64View(i)
	require.NoError(t, err)
	assert.Equal(t, []float64{-3, 7}, got)
}

func TestMemAllocatorBuilders(t *testing.T) {
	alloc := NewMemAllocator()

	fb := alloc.NewFloat64Builder()
	require.NoError(t, fb.Reserve(3))
	require.NoError(t, fb.AppendValues([]float64{1, 2}))
	require.NoError(t, fb.AppendValues([]float64{3}))
	col, err := fb.Finish()
	require.NoError(t, err)
	assert.Equal(t, Float64, col.DataType())
	assert.Equal(t, []float64{1, 2, 3}, col.(Float64Column).Float64Values())

	ib := alloc.NewInt64Builder()
	require.NoError(t, ib.AppendValues([]int64{4, 5}))
	col, err = ib.Finish()
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, col.(Int64Column).Int64Values())
}

func TestMemAllocatorLimit(t *testing.T) {
	alloc := &MemAllocator{MaxValues: 2}

	fb := alloc.NewFloat64Builder()
	err := fb.Reserve(3)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeAllocation, errors.TypeOf(err))

	ib := alloc.NewInt64Builder()
	require.NoError(t, ib.AppendValues([]int64{1, 2}))
	err = ib.AppendValues([]int64{3})
	assert.True(t, errors.IsType(err, errors.ErrorTypeAllocation))
}

func TestNewTable(t *testing.T) {
	schema := twoColSchema()
	mk := func(n int) Batch {
		b, err := NewBatch(schema, []Column{
			NewInt64Column(make([]int64, n), nil),
			NewFloat64Column(make([]float64, n), nil),
		})
		require.NoError(t, err)
		return b
	}

	tbl, err := NewTable([]Batch{mk(2), mk(3), mk(0)})
	require.NoError(t, err)
	assert.Equal(t, 5, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumBatches())
	assert.Len(t, tbl.Batches(), 3)
	assert.Equal(t, 3, tbl.Batch(1).NumRows())
	assert.True(t, tbl.Schema().Equal(schema))
}

func TestNewTableErrors(t *testing.T) {
	_, err := NewTable(nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEmptyInput))

	a, err := NewBatch(twoColSchema(), []Column{
		NewInt64Column([]int64{1}, nil),
		NewFloat64Column([]float64{1}, nil),
	})
	require.NoError(t, err)
	other, err := NewBatch(NewSchema(Field{Name: "x", Type: Float64}), []Column{
		NewFloat64Column([]float64{1}, nil),
	})
	require.NoError(t, err)

	_, err = NewTable([]Batch{a, other})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeShape))

	var se *errors.Error
	require.ErrorAs(t, err, &se)
	idx, ok := se.Detail("batch_index")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestSchemaEqual(t *testing.T) {
	a := twoColSchema()
	b := twoColSchema()
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(NewSchema(Field{Name: "a", Type: Int64})))
	assert.False(t, a.Equal(nil))
	assert.Equal(t, "schema<a: int64, b: float64>", a.String())
	assert.Equal(t, "DataType(9)", DataType(9).String())
}
