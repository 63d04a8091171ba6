package main

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apm "github.com/tphakala/go-audio-apm"
)

func TestLiveSessionCallback(t *testing.T) {
	p, err := apm.Create(apm.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(p.Destroy)

	far := make([]int16, 300)
	for i := range far {
		far[i] = int16(i + 1)
	}
	s := newLiveSession(p, far)
	s.out = make(chan []int16, 1)

	// Device periods that do not line up with the 480-sample frame.
	const period = 256
	output := make([]byte, period*bytesPerSample16)
	input := make([]byte, period*bytesPerSample16)

	s.onData(output, input, period)
	for i := range period {
		got := int16(binary.LittleEndian.Uint16(output[i*bytesPerSample16:]))
		require.Equal(t, far[i%len(far)], got, "sample %d", i)
	}
	assert.Zero(t, s.frames.Load(), "half a frame is not processed yet")

	s.onData(output, input, period)
	assert.Equal(t, int64(1), s.frames.Load())
	assert.Len(t, <-s.out, apm.NumSamplesPerFrame)

	// Keep going without draining: the queue is full, so frames are dropped.
	for range 4 {
		s.onData(output, input, period)
	}
	assert.Equal(t, int64(3), s.frames.Load())
	assert.Equal(t, int64(1), s.dropped.Load())
	assert.Zero(t, s.rejected.Load())
}

func TestLiveSessionSilentWithoutFar(t *testing.T) {
	p, err := apm.Create(apm.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(p.Destroy)

	s := newLiveSession(p, nil)
	output := []byte{1, 2, 3, 4}
	s.onData(output, make([]byte, 4), 2)
	assert.Equal(t, []byte{0, 0, 0, 0}, output)
}
