package apm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tphakala/go-audio-apm/engine"
)

// Processor bridges interleaved host frames to an engine. It owns the
// engine, the capture and render layouts and one set of planar buffers per
// path.
//
// A Processor is not safe for concurrent use: calls on the same Processor
// must be serialized by the caller. Every method accepts a nil receiver;
// processing methods then fail with StatusBadParameter and the rest are
// no-ops or return zero values.
//
// The render path should be fed the far-end frame that corresponds to each
// capture frame before that capture frame is processed. This ordering is
// not checked.
type Processor struct {
	eng     engine.Engine
	logger  *slog.Logger
	metrics *Metrics

	captureConfig engine.StreamConfig
	renderConfig  engine.StreamConfig

	capture *frameBuffers
	render  *frameBuffers
}

type planarFunc func(src [][]float32, in, out engine.StreamConfig, dst [][]float32) engine.Code

type interleavedFunc func(src []int16, in, out engine.StreamConfig, dst []int16) engine.Code

// Create builds a Processor for cfg. Both channel counts must be positive.
//
// Errors carry a Status: StatusBadParameter for invalid channel counts,
// StatusCreationFailed when the engine cannot be constructed, or the
// engine's own code when it rejects the stream layouts.
func Create(cfg Config, opts ...Option) (*Processor, error) {
	o := newOptions(opts)

	if cfg.CaptureChannels <= 0 || cfg.RenderChannels <= 0 {
		return nil, fmt.Errorf("%w: capture channels %d, render channels %d",
			StatusBadParameter, cfg.CaptureChannels, cfg.RenderChannels)
	}

	eng, err := o.factory(translateConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", StatusCreationFailed, err)
	}
	if eng == nil {
		return nil, fmt.Errorf("%w: factory returned no engine", StatusCreationFailed)
	}

	p := &Processor{
		eng:           eng,
		logger:        o.logger,
		metrics:       o.metrics,
		captureConfig: engine.NewStreamConfig(SampleRateHz, cfg.CaptureChannels),
		renderConfig:  engine.NewStreamConfig(SampleRateHz, cfg.RenderChannels),
	}

	code := eng.InitializeWithConfig(engine.ProcessingConfig{
		InputStream:         p.captureConfig,
		OutputStream:        p.captureConfig,
		ReverseInputStream:  p.renderConfig,
		ReverseOutputStream: p.renderConfig,
	})
	if !IsSuccess(code) {
		if err := eng.Close(); err != nil {
			o.logger.Warn("failed to close engine after initialization error", "error", err)
		}
		return nil, code
	}

	if cfg.EchoCancellation.Enabled {
		if code := eng.SetStreamDelayMs(cfg.EchoCancellation.StreamDelayMs); !IsSuccess(code) {
			o.logger.Debug("engine adjusted initial stream delay",
				"requested_ms", cfg.EchoCancellation.StreamDelayMs,
				"status", code)
		}
	}

	p.capture = newFrameBuffers(cfg.CaptureChannels, NumSamplesPerFrame)
	p.render = newFrameBuffers(cfg.RenderChannels, NumSamplesPerFrame)

	p.metrics.processorCreated()
	p.logger.Debug("processor created",
		"capture_channels", cfg.CaptureChannels,
		"render_channels", cfg.RenderChannels,
		"hpf", cfg.HighPassFilterEnabled,
		"aec", cfg.EchoCancellation.Enabled,
		"agc", cfg.GainControl.Enabled,
		"ns", cfg.NoiseSuppression.Enabled)

	return p, nil
}

// Destroy closes the engine and releases the buffers. A Processor must not
// be used, or destroyed again, afterwards.
func (p *Processor) Destroy() {
	if p == nil {
		return
	}
	if err := p.eng.Close(); err != nil {
		p.logger.Warn("failed to close engine", "error", err)
	}
	p.capture = nil
	p.render = nil
	p.metrics.processorDestroyed()
	p.logger.Debug("processor destroyed")
}

// Initialize re-initializes the engine with its current layouts. Buffers
// are untouched.
func (p *Processor) Initialize() error {
	if p == nil {
		return fmt.Errorf("%w: nil processor", StatusBadParameter)
	}
	if code := p.eng.Initialize(); !IsSuccess(code) {
		return code
	}
	return nil
}

// ApplyConfig translates cfg and hands it to the engine. Channel counts in
// cfg are ignored; layouts are fixed at Create.
func (p *Processor) ApplyConfig(cfg Config) {
	if p == nil {
		return
	}
	p.eng.ApplyConfig(translateConfig(cfg))
}

// CaptureChannels returns the capture channel count, or 0 for nil.
func (p *Processor) CaptureChannels() int {
	if p == nil {
		return 0
	}
	return p.captureConfig.NumChannels
}

// RenderChannels returns the render channel count, or 0 for nil.
func (p *Processor) RenderChannels() int {
	if p == nil {
		return 0
	}
	return p.renderConfig.NumChannels
}

// ProcessCaptureFloat32 processes one interleaved near-end frame in place.
// samples must hold channels*NumSamplesPerFrame values and channels must
// equal the capture channel count. On a precondition failure samples is
// not touched; on an engine failure samples keeps its input content.
func (p *Processor) ProcessCaptureFloat32(samples []float32, channels int) error {
	if p == nil {
		return fmt.Errorf("%w: nil processor", StatusBadParameter)
	}
	return p.processFloat(pathCaptureFloat, samples, channels, p.captureConfig, p.capture, p.eng.ProcessStream)
}

// ProcessCaptureInt16 processes one interleaved int16 near-end frame in
// place. The engine consumes the interleaved buffer directly.
func (p *Processor) ProcessCaptureInt16(samples []int16, channels int) error {
	if p == nil {
		return fmt.Errorf("%w: nil processor", StatusBadParameter)
	}
	return p.processInt16(pathCaptureInt16, samples, channels, p.captureConfig, p.eng.ProcessStreamInt16)
}

// ProcessRenderFloat32 feeds one interleaved far-end frame to the engine.
// The engine may modify the frame; the result is written back.
func (p *Processor) ProcessRenderFloat32(samples []float32, channels int) error {
	if p == nil {
		return fmt.Errorf("%w: nil processor", StatusBadParameter)
	}
	return p.processFloat(pathRenderFloat, samples, channels, p.renderConfig, p.render, p.eng.ProcessReverseStream)
}

// ProcessRenderInt16 is the int16 variant of ProcessRenderFloat32.
func (p *Processor) ProcessRenderInt16(samples []int16, channels int) error {
	if p == nil {
		return fmt.Errorf("%w: nil processor", StatusBadParameter)
	}
	return p.processInt16(pathRenderInt16, samples, channels, p.renderConfig, p.eng.ProcessReverseStreamInt16)
}

func (p *Processor) processFloat(path string, samples []float32, channels int,
	sc engine.StreamConfig, buf *frameBuffers, process planarFunc,
) error {
	if err := checkFrame(len(samples), channels, sc.NumChannels); err != nil {
		p.metrics.recordError(path, StatusBadParameter)
		return err
	}

	start := time.Now()
	Deinterleave(samples, buf.channels)
	if code := process(buf.channels, sc, sc, buf.channels); !IsSuccess(code) {
		p.frameFailed(path, code)
		return code
	}
	Interleave(buf.channels, samples)
	p.metrics.recordFrame(path, time.Since(start))
	return nil
}

func (p *Processor) processInt16(path string, samples []int16, channels int,
	sc engine.StreamConfig, process interleavedFunc,
) error {
	if err := checkFrame(len(samples), channels, sc.NumChannels); err != nil {
		p.metrics.recordError(path, StatusBadParameter)
		return err
	}

	start := time.Now()
	if code := process(samples, sc, sc, samples); !IsSuccess(code) {
		p.frameFailed(path, code)
		return code
	}
	p.metrics.recordFrame(path, time.Since(start))
	return nil
}

func (p *Processor) frameFailed(path string, code Status) {
	p.metrics.recordError(path, code)
	if p.logger.Enabled(context.Background(), slog.LevelDebug) {
		p.logger.Debug("engine rejected frame", "path", path, "status", code)
	}
}

// checkFrame validates a host buffer against the processor layout.
func checkFrame(n, channels, want int) error {
	switch {
	case n == 0:
		return fmt.Errorf("%w: empty buffer", StatusBadParameter)
	case channels != want:
		return fmt.Errorf("%w: %d channels, processor has %d", StatusBadParameter, channels, want)
	case n != channels*NumSamplesPerFrame:
		return fmt.Errorf("%w: buffer holds %d samples, frame needs %d",
			StatusBadParameter, n, channels*NumSamplesPerFrame)
	}
	return nil
}

// Statistics returns the current statistics. Unavailable metrics, and every
// metric of a nil Processor, are zero.
func (p *Processor) Statistics() Stats {
	if p == nil {
		return Stats{}
	}
	return extractStats(p.eng.Statistics())
}

// SetStreamDelayMs sets the render-to-capture delay hint.
func (p *Processor) SetStreamDelayMs(delayMs int) {
	if p == nil {
		return
	}
	if code := p.eng.SetStreamDelayMs(delayMs); !IsSuccess(code) {
		p.logger.Debug("engine adjusted stream delay", "requested_ms", delayMs, "status", code)
	}
}

// StreamDelayMs returns the engine's current delay, or 0 for nil.
func (p *Processor) StreamDelayMs() int {
	if p == nil {
		return 0
	}
	return p.eng.StreamDelayMs()
}

// SetOutputWillBeMuted tells the engine the output is about to be muted.
func (p *Processor) SetOutputWillBeMuted(muted bool) {
	if p == nil {
		return
	}
	p.eng.SetOutputWillBeMuted(muted)
}

// SetStreamKeyPressed tells the engine a key is being pressed.
func (p *Processor) SetStreamKeyPressed(pressed bool) {
	if p == nil {
		return
	}
	p.eng.SetStreamKeyPressed(pressed)
}

// SetStreamAnalogLevel reports the current microphone analog level.
func (p *Processor) SetStreamAnalogLevel(level int) {
	if p == nil {
		return
	}
	p.eng.SetStreamAnalogLevel(level)
}

// RecommendedStreamAnalogLevel returns the analog level the engine
// suggests, or 0 for nil.
func (p *Processor) RecommendedStreamAnalogLevel() int {
	if p == nil {
		return 0
	}
	return p.eng.RecommendedStreamAnalogLevel()
}
