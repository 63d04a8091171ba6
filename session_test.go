package apm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-apm/engine/enginetest"
)

func newStubSession(t *testing.T, cfg Config) (*Session, *enginetest.Stub) {
	t.Helper()
	stub := &enginetest.Stub{}
	s, err := NewSession(cfg, WithEngineFactory(enginetest.Factory(stub)), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, stub
}

func TestSessionCopiesInput(t *testing.T) {
	s, stub := newStubSession(t, stereoMonoConfig())
	stub.Mutate = func(planar [][]float32) {
		for ch := range planar {
			for i := range planar[ch] {
				planar[ch][i] = 0.5
			}
		}
	}

	in := make([]float32, 2*NumSamplesPerFrame)
	out, err := s.ProcessCapture(in)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	assert.InDelta(t, 0.5, out[0], 0)
	assert.InDelta(t, 0, in[0], 0, "input must not be modified")

	render := make([]float32, NumSamplesPerFrame)
	render[0] = 0.75
	require.NoError(t, s.ProcessRender(render))
	assert.InDelta(t, 0.75, render[0], 0)
	assert.Equal(t, 1, stub.RenderFloatCalls)
}

func TestSessionInt16(t *testing.T) {
	s, stub := newStubSession(t, DefaultConfig())
	stub.Mutate = func(planar [][]float32) {
		planar[0][0] = 2
		planar[0][1] = -0.5
	}

	in := make([]int16, NumSamplesPerFrame)
	in[2] = 16384
	out, err := s.ProcessCaptureInt16(in)
	require.NoError(t, err)
	assert.Equal(t, int16(32767), out[0], "clipped")
	assert.Equal(t, int16(-16383), out[1])
	assert.Equal(t, int16(16383), out[2])
	assert.Equal(t, int16(16384), in[2])

	require.NoError(t, s.ProcessRenderInt16(make([]int16, NumSamplesPerFrame)))
	assert.Equal(t, 1, stub.RenderFloatCalls, "int16 render goes through the float path")

	_, err = s.ProcessCaptureInt16(make([]int16, 3))
	assert.Equal(t, StatusBadParameter, StatusOf(err))
	assert.Equal(t, StatusBadParameter, StatusOf(s.ProcessRenderInt16(make([]int16, 3))))
	assert.Equal(t, StatusBadParameter, StatusOf(s.ProcessRender(make([]float32, 3))))
}

func TestSessionHints(t *testing.T) {
	s, stub := newStubSession(t, DefaultConfig())

	require.NoError(t, s.SetStreamDelay(30))
	assert.Equal(t, 30, s.StreamDelay())

	s.SetOutputMuted(true)
	s.SetKeyPressed(true)
	assert.True(t, stub.Muted)
	assert.True(t, stub.KeyPressed)

	require.NoError(t, s.Initialize())
	assert.Equal(t, 1, stub.InitCalls)
	assert.Equal(t, Stats{}, s.Stats())
}

func TestSessionClose(t *testing.T) {
	s, stub := newStubSession(t, DefaultConfig())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, stub.CloseCalls)

	_, err := s.ProcessCapture(make([]float32, NumSamplesPerFrame))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.ProcessCaptureInt16(make([]int16, NumSamplesPerFrame))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.ProcessRender(make([]float32, NumSamplesPerFrame)), ErrClosed)
	assert.ErrorIs(t, s.ProcessRenderInt16(make([]int16, NumSamplesPerFrame)), ErrClosed)
	assert.ErrorIs(t, s.SetStreamDelay(10), ErrClosed)
	assert.Equal(t, -1, s.StreamDelay())
	assert.Equal(t, Stats{}, s.Stats())
	assert.NoError(t, s.Initialize())
	assert.NotPanics(t, func() {
		s.SetOutputMuted(true)
		s.SetKeyPressed(true)
	})
}

func TestSessionConcurrentUse(t *testing.T) {
	s, err := NewSession(DefaultConfig(), discardLogger())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			frame := make([]float32, NumSamplesPerFrame)
			for range 20 {
				_, err := s.ProcessCapture(frame)
				assert.NoError(t, err)
				assert.NoError(t, s.ProcessRender(frame))
			}
		}()
	}
	wg.Wait()
}

func TestNewSessionError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CaptureChannels = 0
	_, err := NewSession(cfg, discardLogger())
	assert.Equal(t, StatusBadParameter, StatusOf(err))
}
