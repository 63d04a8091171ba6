package apm

import "github.com/tphakala/go-audio-apm/internal/ringbuf"

// Sample is the set of sample types a Framer can carry.
type Sample interface {
	float32 | int16
}

// Framer slices an interleaved stream of arbitrary chunk sizes into whole
// 10 ms frames. It is not safe for concurrent use.
type Framer[T Sample] struct {
	buf      *ringbuf.Buffer[T]
	channels int
}

// NewFramer returns a Framer for interleaved audio with the given channel
// count. Channel counts below 1 are treated as mono.
func NewFramer[T Sample](channels int) *Framer[T] {
	if channels < 1 {
		channels = 1
	}
	return &Framer[T]{
		buf:      ringbuf.New[T](2 * channels * NumSamplesPerFrame),
		channels: channels,
	}
}

// Channels returns the channel count.
func (f *Framer[T]) Channels() int {
	return f.channels
}

// FrameLen returns the number of interleaved samples in one frame.
func (f *Framer[T]) FrameLen() int {
	return f.channels * NumSamplesPerFrame
}

// Write appends interleaved samples.
func (f *Framer[T]) Write(samples []T) {
	f.buf.Write(samples)
}

// Next copies the oldest complete frame into dst and reports whether one
// was available. dst must hold at least FrameLen samples.
func (f *Framer[T]) Next(dst []T) bool {
	n := f.FrameLen()
	if len(dst) < n || f.buf.Available() < n {
		return false
	}
	f.buf.ReadInto(dst[:n])
	return true
}

// Flush zero-pads any partial frame into dst. It reports false when
// nothing is buffered.
func (f *Framer[T]) Flush(dst []T) bool {
	n := f.FrameLen()
	if len(dst) < n || f.buf.Available() == 0 {
		return false
	}
	if f.Next(dst) {
		return true
	}
	read := f.buf.ReadInto(dst[:n])
	clear(dst[read:n])
	return true
}

// Buffered returns the number of whole per-channel sample frames waiting.
func (f *Framer[T]) Buffered() int {
	return f.buf.Available() / f.channels
}

// Reset discards buffered samples.
func (f *Framer[T]) Reset() {
	f.buf.Clear()
}
