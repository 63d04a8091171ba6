// Package engine defines the contract between the frame bridge and an audio
// enhancement engine.
//
// An engine consumes 10 ms frames and performs echo cancellation, noise
// suppression, gain control and high-pass filtering in place. The float path
// works on planar buffers (one slice per channel); the int16 path works on a
// single interleaved buffer. Engines report status through [Code].
//
// Implementations are not required to be safe for concurrent use. Callers
// serialize access per engine instance.
package engine

// Engine is an audio enhancement engine.
type Engine interface {
	// InitializeWithConfig (re)initializes the engine for the given stream
	// layouts.
	InitializeWithConfig(cfg ProcessingConfig) Code

	// Initialize resets internal state keeping the current layouts.
	Initialize() Code

	// ApplyConfig replaces the component configuration.
	ApplyConfig(cfg Config)

	// ProcessStream processes one planar capture frame. src and dst may
	// alias.
	ProcessStream(src [][]float32, in, out StreamConfig, dst [][]float32) Code

	// ProcessStreamInt16 processes one interleaved capture frame. src and
	// dst may alias.
	ProcessStreamInt16(src []int16, in, out StreamConfig, dst []int16) Code

	// ProcessReverseStream analyzes (and may modify) one planar render
	// frame.
	ProcessReverseStream(src [][]float32, in, out StreamConfig, dst [][]float32) Code

	// ProcessReverseStreamInt16 is the interleaved int16 variant of
	// ProcessReverseStream.
	ProcessReverseStreamInt16(src []int16, in, out StreamConfig, dst []int16) Code

	// Statistics returns the current statistics report.
	Statistics() Stats

	SetStreamDelayMs(delayMs int) Code
	StreamDelayMs() int
	SetOutputWillBeMuted(muted bool)
	SetStreamKeyPressed(pressed bool)
	SetStreamAnalogLevel(level int)
	RecommendedStreamAnalogLevel() int

	// Close releases engine resources. The engine must not be used after.
	Close() error
}

// Factory constructs an engine from an initial configuration.
type Factory func(cfg Config) (Engine, error)
