package apm

import (
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by Session methods after Close.
var ErrClosed = errors.New("apm: session is closed")

// Session is a goroutine-safe wrapper around a Processor. Unlike the
// Processor it never modifies caller buffers: processed capture audio is
// returned in a new slice.
type Session struct {
	mu   sync.Mutex
	proc *Processor

	capture []float32
	render  []float32
}

// NewSession creates a Processor for cfg and wraps it.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	p, err := Create(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio processor: %w", err)
	}
	return &Session{
		proc:    p,
		capture: make([]float32, cfg.CaptureChannels*NumSamplesPerFrame),
		render:  make([]float32, cfg.RenderChannels*NumSamplesPerFrame),
	}, nil
}

// Initialize re-initializes the engine. It is a no-op after Close.
func (s *Session) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return nil
	}
	return s.proc.Initialize()
}

// ProcessCapture processes one interleaved near-end frame and returns the
// result. samples is left unchanged.
func (s *Session) ProcessCapture(samples []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return nil, ErrClosed
	}
	out := make([]float32, len(samples))
	copy(out, samples)
	if err := s.proc.ProcessCaptureFloat32(out, s.proc.CaptureChannels()); err != nil {
		return nil, err
	}
	return out, nil
}

// ProcessCaptureInt16 converts samples to float, processes them and
// converts the result back with clipping.
func (s *Session) ProcessCaptureInt16(samples []int16) ([]int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return nil, ErrClosed
	}
	if len(samples) != len(s.capture) {
		return nil, fmt.Errorf("%w: buffer holds %d samples, frame needs %d",
			StatusBadParameter, len(samples), len(s.capture))
	}
	Int16ToFloat32(s.capture, samples)
	if err := s.proc.ProcessCaptureFloat32(s.capture, s.proc.CaptureChannels()); err != nil {
		return nil, err
	}
	out := make([]int16, len(samples))
	Float32ToInt16(out, s.capture)
	return out, nil
}

// ProcessRender feeds one interleaved far-end frame to the engine. samples
// is left unchanged.
func (s *Session) ProcessRender(samples []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return ErrClosed
	}
	if len(samples) != len(s.render) {
		return fmt.Errorf("%w: buffer holds %d samples, frame needs %d",
			StatusBadParameter, len(samples), len(s.render))
	}
	copy(s.render, samples)
	return s.proc.ProcessRenderFloat32(s.render, s.proc.RenderChannels())
}

// ProcessRenderInt16 converts samples to float and feeds them to the
// engine.
func (s *Session) ProcessRenderInt16(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return ErrClosed
	}
	if len(samples) != len(s.render) {
		return fmt.Errorf("%w: buffer holds %d samples, frame needs %d",
			StatusBadParameter, len(samples), len(s.render))
	}
	Int16ToFloat32(s.render, samples)
	return s.proc.ProcessRenderFloat32(s.render, s.proc.RenderChannels())
}

// SetStreamDelay updates the render-to-capture delay estimate.
func (s *Session) SetStreamDelay(delayMs int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return ErrClosed
	}
	s.proc.SetStreamDelayMs(delayMs)
	return nil
}

// StreamDelay returns the engine's delay, or -1 after Close.
func (s *Session) StreamDelay() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return -1
	}
	return s.proc.StreamDelayMs()
}

// Stats returns the current statistics, or zero values after Close.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc.Statistics()
}

// SetOutputMuted forwards the output-muted hint.
func (s *Session) SetOutputMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proc.SetOutputWillBeMuted(muted)
}

// SetKeyPressed forwards the key-pressed hint.
func (s *Session) SetKeyPressed(pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proc.SetStreamKeyPressed(pressed)
}

// Close destroys the Processor. Further calls to Close are no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != nil {
		s.proc.Destroy()
		s.proc = nil
	}
	return nil
}
