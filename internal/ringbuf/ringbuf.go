// Package ringbuf provides a growable FIFO of samples.
package ringbuf

// Sample is the set of element types the buffer holds.
type Sample interface {
	float32 | int16
}

// Buffer is a circular FIFO that grows when a write does not fit. It is
// not safe for concurrent use.
type Buffer[T Sample] struct {
	data     []T
	size     int
	readPos  int
	writePos int
}

// New returns a buffer with at least the given capacity.
func New[T Sample](capacity int) *Buffer[T] {
	return &Buffer[T]{data: make([]T, max(capacity, 1))}
}

// Write appends samples, growing the buffer if needed.
func (b *Buffer[T]) Write(samples []T) {
	if len(samples) == 0 {
		return
	}
	if b.size+len(samples) > len(b.data) {
		b.grow(b.size + len(samples))
	}

	n := copy(b.data[b.writePos:], samples)
	if n < len(samples) {
		copy(b.data, samples[n:])
	}
	b.writePos = (b.writePos + len(samples)) % len(b.data)
	b.size += len(samples)
}

// ReadInto moves up to len(dst) samples into dst and returns the count.
func (b *Buffer[T]) ReadInto(dst []T) int {
	n := b.PeekInto(dst)
	b.readPos = (b.readPos + n) % len(b.data)
	b.size -= n
	return n
}

// PeekInto copies up to len(dst) samples into dst without consuming them.
func (b *Buffer[T]) PeekInto(dst []T) int {
	n := min(len(dst), b.size)
	if n == 0 {
		return 0
	}
	first := copy(dst[:n], b.data[b.readPos:min(b.readPos+n, len(b.data))])
	if first < n {
		copy(dst[first:n], b.data[:n-first])
	}
	return n
}

// Available returns the number of buffered samples.
func (b *Buffer[T]) Available() int {
	return b.size
}

// Capacity returns the current capacity.
func (b *Buffer[T]) Capacity() int {
	return len(b.data)
}

// Clear drops all buffered samples.
func (b *Buffer[T]) Clear() {
	b.size = 0
	b.readPos = 0
	b.writePos = 0
}

// grow doubles capacity until minCapacity fits, unwrapping the contents.
func (b *Buffer[T]) grow(minCapacity int) {
	newCap := len(b.data)
	for newCap < minCapacity {
		newCap *= 2
	}
	data := make([]T, newCap)
	b.PeekInto(data)

	b.data = data
	b.readPos = 0
	b.writePos = b.size
}
