package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	b := New[float32](8)
	b.Write([]float32{1, 2, 3})
	assert.Equal(t, 3, b.Available())

	dst := make([]float32, 2)
	require.Equal(t, 2, b.ReadInto(dst))
	assert.Equal(t, []float32{1, 2}, dst)
	assert.Equal(t, 1, b.Available())
}

func TestWrapAround(t *testing.T) {
	b := New[int16](4)
	b.Write([]int16{1, 2, 3})
	dst := make([]int16, 2)
	b.ReadInto(dst)

	// writePos is at 3; this write wraps.
	b.Write([]int16{4, 5, 6})
	assert.Equal(t, 4, b.Capacity())
	assert.Equal(t, 4, b.Available())

	out := make([]int16, 4)
	require.Equal(t, 4, b.ReadInto(out))
	assert.Equal(t, []int16{3, 4, 5, 6}, out)
}

func TestGrowPreservesOrder(t *testing.T) {
	b := New[int16](4)
	b.Write([]int16{1, 2, 3})
	dst := make([]int16, 2)
	b.ReadInto(dst)
	b.Write([]int16{4, 5, 6, 7, 8, 9})

	assert.GreaterOrEqual(t, b.Capacity(), 7)
	out := make([]int16, 10)
	n := b.ReadInto(out)
	assert.Equal(t, []int16{3, 4, 5, 6, 7, 8, 9}, out[:n])
}

func TestPeekDoesNotConsume(t *testing.T) {
	b := New[float32](2)
	b.Write([]float32{1, 2, 3})

	dst := make([]float32, 5)
	assert.Equal(t, 3, b.PeekInto(dst))
	assert.Equal(t, 3, b.Available())

	b.Clear()
	assert.Equal(t, 0, b.Available())
	assert.Equal(t, 0, b.ReadInto(dst))
}

func TestZeroCapacity(t *testing.T) {
	b := New[float32](0)
	assert.Equal(t, 1, b.Capacity())
	b.Write(nil)
	assert.Equal(t, 0, b.Available())
}
