// Package enginetest provides a scripted engine for tests.
package enginetest

import (
	"errors"

	"github.com/tphakala/go-audio-apm/engine"
)

// ErrFactory is returned by the factory from FailingFactory.
var ErrFactory = errors.New("enginetest: factory failure")

// Stub is a recording engine. Processing is the identity unless a Mutate
// hook is set; status codes can be scripted per operation.
type Stub struct {
	// Created is the configuration the factory was called with.
	Created engine.Config
	// Applied records every ApplyConfig call in order.
	Applied []engine.Config
	// Processing is the layout from the last InitializeWithConfig call.
	Processing engine.ProcessingConfig

	InitWithConfigCode engine.Code
	InitCode           engine.Code
	CaptureCode        engine.Code
	RenderCode         engine.Code
	DelayCode          engine.Code

	// Stats is returned from Statistics.
	Stats engine.Stats

	// Mutate, when set, is applied to the planar output of successful
	// float32 capture calls.
	Mutate func(channels [][]float32)
	// MutateInt16 is the interleaved int16 counterpart of Mutate.
	MutateInt16 func(samples []int16)

	InitWithConfigCalls int
	InitCalls           int
	CaptureFloatCalls   int
	CaptureInt16Calls   int
	RenderFloatCalls    int
	RenderInt16Calls    int
	CloseCalls          int

	// LastStream is the stream config passed to the last processing call.
	LastStream engine.StreamConfig

	DelayMs        int
	DelayCalls     int
	Muted          bool
	KeyPressed     bool
	AnalogLevel    int
	RecommendLevel int
}

var _ engine.Engine = (*Stub)(nil)

// Factory returns a factory that hands out s.
func Factory(s *Stub) engine.Factory {
	return func(cfg engine.Config) (engine.Engine, error) {
		s.Created = cfg
		return s, nil
	}
}

// FailingFactory returns a factory that always fails.
func FailingFactory() engine.Factory {
	return func(engine.Config) (engine.Engine, error) {
		return nil, ErrFactory
	}
}

func (s *Stub) InitializeWithConfig(cfg engine.ProcessingConfig) engine.Code {
	s.InitWithConfigCalls++
	s.Processing = cfg
	return s.InitWithConfigCode
}

func (s *Stub) Initialize() engine.Code {
	s.InitCalls++
	return s.InitCode
}

func (s *Stub) ApplyConfig(cfg engine.Config) {
	s.Applied = append(s.Applied, cfg)
}

func (s *Stub) ProcessStream(src [][]float32, in, _ engine.StreamConfig, dst [][]float32) engine.Code {
	s.CaptureFloatCalls++
	s.LastStream = in
	if s.CaptureCode != engine.NoError {
		return s.CaptureCode
	}
	copyPlanar(dst, src)
	if s.Mutate != nil {
		s.Mutate(dst)
	}
	return engine.NoError
}

func (s *Stub) ProcessStreamInt16(src []int16, in, _ engine.StreamConfig, dst []int16) engine.Code {
	s.CaptureInt16Calls++
	s.LastStream = in
	if s.CaptureCode != engine.NoError {
		return s.CaptureCode
	}
	copy(dst, src)
	if s.MutateInt16 != nil {
		s.MutateInt16(dst)
	}
	return engine.NoError
}

func (s *Stub) ProcessReverseStream(src [][]float32, in, _ engine.StreamConfig, dst [][]float32) engine.Code {
	s.RenderFloatCalls++
	s.LastStream = in
	if s.RenderCode != engine.NoError {
		return s.RenderCode
	}
	copyPlanar(dst, src)
	return engine.NoError
}

func (s *Stub) ProcessReverseStreamInt16(src []int16, in, _ engine.StreamConfig, dst []int16) engine.Code {
	s.RenderInt16Calls++
	s.LastStream = in
	if s.RenderCode != engine.NoError {
		return s.RenderCode
	}
	copy(dst, src)
	return engine.NoError
}

func (s *Stub) Statistics() engine.Stats {
	return s.Stats
}

func (s *Stub) SetStreamDelayMs(delayMs int) engine.Code {
	s.DelayCalls++
	s.DelayMs = delayMs
	return s.DelayCode
}

func (s *Stub) StreamDelayMs() int {
	return s.DelayMs
}

func (s *Stub) SetOutputWillBeMuted(muted bool) {
	s.Muted = muted
}

func (s *Stub) SetStreamKeyPressed(pressed bool) {
	s.KeyPressed = pressed
}

func (s *Stub) SetStreamAnalogLevel(level int) {
	s.AnalogLevel = level
}

func (s *Stub) RecommendedStreamAnalogLevel() int {
	if s.RecommendLevel != 0 {
		return s.RecommendLevel
	}
	return s.AnalogLevel
}

func (s *Stub) Close() error {
	s.CloseCalls++
	return nil
}

func copyPlanar(dst, src [][]float32) {
	for ch := range min(len(dst), len(src)) {
		copy(dst[ch], src[ch])
	}
}
