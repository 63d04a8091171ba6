// Package builtin implements the reference engine used when no external
// engine is supplied. It runs a linear-phase high-pass filter and a fixed
// digital gain stage with an optional peak limiter. Echo cancellation and
// noise suppression are accepted in the configuration but pass audio
// through unchanged.
package builtin

import (
	"log/slog"

	"github.com/tphakala/go-audio-apm/engine"
	"github.com/tphakala/go-audio-apm/internal/filter"
	"github.com/tphakala/go-audio-apm/internal/mathutil"
	"github.com/tphakala/go-audio-apm/internal/simdops"
)

const (
	hpfCutoffHz      = 80.0
	hpfTransitionHz  = 80.0
	hpfAttenuationDb = 40.0

	maxStreamDelayMs = 500
	maxAnalogLevel   = 255
	maxRmsDbfs       = 127
)

var supportedRates = map[int]bool{8000: true, 16000: true, 32000: true, 48000: true}

// Engine is the reference engine. It is not safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	cfg    engine.Config

	proc        engine.ProcessingConfig
	initialized bool

	hpf    []*filter.FIR // one per capture channel, nil when inactive
	planar [][]float32   // int16 path scratch

	delayMs     int
	analogLevel int
	muted       bool
	keyPressed  bool

	outputRmsDb    float64
	processedFrame bool

	warned map[string]bool
}

var _ engine.Engine = (*Engine)(nil)

// New returns an engine with the given configuration. It must be
// initialized with InitializeWithConfig before processing.
func New(cfg engine.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		logger: logger.With("component", "apm.builtin"),
		warned: make(map[string]bool),
	}
	e.ApplyConfig(cfg)
	return e
}

// Factory returns an engine.Factory producing reference engines that log
// through logger.
func Factory(logger *slog.Logger) engine.Factory {
	return func(cfg engine.Config) (engine.Engine, error) {
		return New(cfg, logger), nil
	}
}

// InitializeWithConfig validates the four stream layouts and rebuilds all
// per-channel state.
func (e *Engine) InitializeWithConfig(pc engine.ProcessingConfig) engine.Code {
	for _, sc := range []engine.StreamConfig{pc.InputStream, pc.OutputStream, pc.ReverseInputStream, pc.ReverseOutputStream} {
		if code := validateStream(sc); code != engine.NoError {
			return code
		}
	}
	if pc.InputStream != pc.OutputStream || pc.ReverseInputStream != pc.ReverseOutputStream {
		return engine.BadParameterError
	}

	e.proc = pc
	e.initialized = true
	e.rebuild()

	e.logger.Debug("engine initialized",
		"capture_channels", pc.InputStream.NumChannels,
		"render_channels", pc.ReverseInputStream.NumChannels,
		"sample_rate", pc.InputStream.SampleRateHz,
		"hpf_taps", e.hpfTaps())
	return engine.NoError
}

// Initialize clears filter history keeping the current layouts.
func (e *Engine) Initialize() engine.Code {
	for _, f := range e.hpf {
		f.Reset()
	}
	e.outputRmsDb = 0
	e.processedFrame = false
	return engine.NoError
}

// ApplyConfig replaces the configuration. Filters are (re)built only when
// the high-pass stage changes state.
func (e *Engine) ApplyConfig(cfg engine.Config) {
	wasActive := hpfActive(e.cfg)
	e.cfg = cfg

	if cfg.EchoCanceller.Enabled {
		e.warnOnce("echo_canceller", "echo cancellation is not implemented by the reference engine; audio passes through")
	}
	if cfg.NoiseSuppression.Enabled {
		e.warnOnce("noise_suppression", "noise suppression is not implemented by the reference engine; audio passes through")
	}
	if cfg.GainController1.Enabled && cfg.GainController1.Mode != engine.GainControllerFixedDigital {
		e.warnOnce("adaptive_gain", "adaptive gain control approximated by fixed digital gain")
	}

	if e.initialized && wasActive != hpfActive(cfg) {
		e.rebuild()
	}
}

// ProcessStream runs the capture chain on a planar frame.
func (e *Engine) ProcessStream(src [][]float32, in, out engine.StreamConfig, dst [][]float32) engine.Code {
	if code := e.checkCapture(in, out); code != engine.NoError {
		return code
	}
	n := in.NumFrames()
	if code := checkPlanar(src, in.NumChannels, n); code != engine.NoError {
		return code
	}
	if code := checkPlanar(dst, out.NumChannels, n); code != engine.NoError {
		return code
	}

	for ch := range in.NumChannels {
		copy(dst[ch][:n], src[ch][:n])
	}
	e.processCapture(dst, n)
	return engine.NoError
}

// ProcessStreamInt16 runs the capture chain on an interleaved int16 frame.
func (e *Engine) ProcessStreamInt16(src []int16, in, out engine.StreamConfig, dst []int16) engine.Code {
	if code := e.checkCapture(in, out); code != engine.NoError {
		return code
	}
	total := in.NumSamples()
	if len(src) < total || len(dst) < total {
		return engine.BadDataLengthError
	}

	n := in.NumFrames()
	numChannels := in.NumChannels
	for i := range n {
		base := i * numChannels
		for ch := range numChannels {
			e.planar[ch][i] = float32(src[base+ch]) / int16Scale
		}
	}

	e.processCapture(e.planar, n)

	for i := range n {
		base := i * numChannels
		for ch := range numChannels {
			dst[base+ch] = toInt16(e.planar[ch][i])
		}
	}
	return engine.NoError
}

// ProcessReverseStream accepts a render frame. Without an echo canceller the
// reference engine only validates and forwards it.
func (e *Engine) ProcessReverseStream(src [][]float32, in, out engine.StreamConfig, dst [][]float32) engine.Code {
	if code := e.checkRender(in, out); code != engine.NoError {
		return code
	}
	n := in.NumFrames()
	if code := checkPlanar(src, in.NumChannels, n); code != engine.NoError {
		return code
	}
	if code := checkPlanar(dst, out.NumChannels, n); code != engine.NoError {
		return code
	}
	for ch := range in.NumChannels {
		copy(dst[ch][:n], src[ch][:n])
	}
	return engine.NoError
}

// ProcessReverseStreamInt16 is the int16 variant of ProcessReverseStream.
func (e *Engine) ProcessReverseStreamInt16(src []int16, in, out engine.StreamConfig, dst []int16) engine.Code {
	if code := e.checkRender(in, out); code != engine.NoError {
		return code
	}
	total := in.NumSamples()
	if len(src) < total || len(dst) < total {
		return engine.BadDataLengthError
	}
	copy(dst[:total], src[:total])
	return engine.NoError
}

// Statistics reports the output level of the last capture frame. Echo
// metrics are never available.
func (e *Engine) Statistics() engine.Stats {
	var stats engine.Stats
	if e.processedFrame {
		level := int(-e.outputRmsDb + 0.5)
		stats.OutputRmsDbfs = engine.Some(min(max(level, 0), maxRmsDbfs))
	}
	return stats
}

// SetStreamDelayMs stores the delay hint clamped to [0, 500] ms.
func (e *Engine) SetStreamDelayMs(delayMs int) engine.Code {
	clamped := min(max(delayMs, 0), maxStreamDelayMs)
	e.delayMs = clamped
	if clamped != delayMs {
		return engine.BadStreamParameterWarning
	}
	return engine.NoError
}

func (e *Engine) StreamDelayMs() int {
	return e.delayMs
}

func (e *Engine) SetOutputWillBeMuted(muted bool) {
	e.muted = muted
}

func (e *Engine) SetStreamKeyPressed(pressed bool) {
	e.keyPressed = pressed
}

// SetStreamAnalogLevel stores the microphone level clamped to [0, 255].
func (e *Engine) SetStreamAnalogLevel(level int) {
	e.analogLevel = min(max(level, 0), maxAnalogLevel)
}

// RecommendedStreamAnalogLevel echoes the last level; the reference engine
// has no analog gain controller.
func (e *Engine) RecommendedStreamAnalogLevel() int {
	return e.analogLevel
}

// Close drops all per-channel state.
func (e *Engine) Close() error {
	e.hpf = nil
	e.planar = nil
	e.initialized = false
	return nil
}

func (e *Engine) processCapture(channels [][]float32, n int) {
	var energy float64
	for ch, buf := range channels {
		buf = buf[:n]
		if e.hpf != nil {
			e.hpf[ch].Process(buf)
		}
		if e.cfg.GainController1.Enabled && !e.muted {
			e.applyGain(buf)
		}
		energy += float64(simdops.Energy(buf))
	}
	e.outputRmsDb = mathutil.RmsDbfs(energy, n*len(channels))
	e.processedFrame = true
}

func (e *Engine) applyGain(buf []float32) {
	gc := e.cfg.GainController1
	if gc.CompressionGainDb != 0 {
		simdops.Float32Ops().Scale(buf, buf, float32(mathutil.DbToLinear(float64(gc.CompressionGainDb))))
	}
	if !gc.EnableLimiter {
		return
	}
	ceiling := float32(mathutil.DbToLinear(-float64(gc.TargetLevelDbfs)))
	for i, s := range buf {
		if s > ceiling {
			buf[i] = ceiling
		} else if s < -ceiling {
			buf[i] = -ceiling
		}
	}
}

func (e *Engine) rebuild() {
	in := e.proc.InputStream
	e.planar = make([][]float32, in.NumChannels)
	for ch := range e.planar {
		e.planar[ch] = make([]float32, in.NumFrames())
	}

	e.hpf = nil
	if !hpfActive(e.cfg) {
		return
	}
	kernel, err := filter.Design(HighPassSpec(in.SampleRateHz))
	if err != nil {
		// Supported rates always yield a valid spec.
		e.logger.Error("high-pass design failed", "error", err)
		return
	}
	e.hpf = make([]*filter.FIR, in.NumChannels)
	for ch := range e.hpf {
		e.hpf[ch] = filter.NewFIR(kernel, in.NumFrames())
	}
}

// HighPassSpec returns the high-pass filter design used at sampleRateHz.
func HighPassSpec(sampleRateHz int) filter.Spec {
	return filter.Spec{
		Kind:          filter.HighPass,
		SampleRateHz:  float64(sampleRateHz),
		CutoffHz:      hpfCutoffHz,
		TransitionHz:  hpfTransitionHz,
		AttenuationDb: hpfAttenuationDb,
	}
}

func (e *Engine) hpfTaps() int {
	if len(e.hpf) == 0 {
		return 0
	}
	return 2*e.hpf[0].Delay() + 1
}

func (e *Engine) checkCapture(in, out engine.StreamConfig) engine.Code {
	if !e.initialized {
		return engine.StreamParameterNotSet
	}
	if in != e.proc.InputStream || out != e.proc.OutputStream {
		return engine.BadParameterError
	}
	return engine.NoError
}

func (e *Engine) checkRender(in, out engine.StreamConfig) engine.Code {
	if !e.initialized {
		return engine.StreamParameterNotSet
	}
	if in != e.proc.ReverseInputStream || out != e.proc.ReverseOutputStream {
		return engine.BadParameterError
	}
	return engine.NoError
}

func (e *Engine) warnOnce(key, msg string) {
	if e.warned[key] {
		return
	}
	e.warned[key] = true
	e.logger.Warn(msg)
}

func hpfActive(cfg engine.Config) bool {
	return cfg.HighPassFilter.Enabled ||
		(cfg.EchoCanceller.Enabled && cfg.EchoCanceller.EnforceHighPassFiltering)
}

func validateStream(sc engine.StreamConfig) engine.Code {
	if !supportedRates[sc.SampleRateHz] {
		return engine.BadSampleRateError
	}
	if sc.NumChannels <= 0 {
		return engine.BadNumberChannelsError
	}
	return engine.NoError
}

func checkPlanar(buf [][]float32, numChannels, numFrames int) engine.Code {
	if buf == nil {
		return engine.NullPointerError
	}
	if len(buf) != numChannels {
		return engine.BadNumberChannelsError
	}
	for _, ch := range buf {
		if len(ch) < numFrames {
			return engine.BadDataLengthError
		}
	}
	return engine.NoError
}

const (
	int16Scale = 32768.0
	int16Max   = 32767.0
)

func toInt16(s float32) int16 {
	v := s * int16Scale
	if v > int16Max {
		return int16Max
	}
	if v < -int16Scale {
		return -int16Scale
	}
	return int16(v)
}
