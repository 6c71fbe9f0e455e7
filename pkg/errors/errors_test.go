package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesStackAndCause(t *testing.T) {
	inner := New(ErrorTypeShape, "odd column count")
	outer := Wrap(inner, ErrorTypeShape, "batch 2 failed")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
	assert.Equal(t, "shape: batch 2 failed: shape: odd column count", outer.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeFile, "nothing"))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(io.EOF))
	assert.Equal(t, ErrorTypeConfig, TypeOf(New(ErrorTypeConfig, "x")))
	assert.Equal(t, ErrorTypeFile, TypeOf(Wrap(io.EOF, ErrorTypeFile, "read")))
}

func TestDetailSearchesChain(t *testing.T) {
	inner := New(ErrorTypeAllocation, "append").WithDetail("feature", 1)
	outer := Wrap(inner, ErrorTypeAllocation, "batch").WithDetail("batch_index", 7)

	v, ok := outer.Detail("batch_index")
	require.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = outer.Detail("feature")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = outer.Detail("missing")
	assert.False(t, ok)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeConfig, "max workers must be positive, got %d", 0)
	assert.True(t, IsType(err, ErrorTypeConfig))
	assert.Equal(t, "config: max workers must be positive, got 0", err.Error())
	assert.NotEmpty(t, err.Stack)
}
