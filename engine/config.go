package engine

// NoiseSuppressionLevel selects how aggressive the noise suppressor is.
type NoiseSuppressionLevel int

// Noise suppression levels.
const (
	NoiseSuppressionLow NoiseSuppressionLevel = iota
	NoiseSuppressionModerate
	NoiseSuppressionHigh
	NoiseSuppressionVeryHigh
)

// GainControllerMode selects the operating mode of the gain controller.
type GainControllerMode int

// Gain controller modes.
const (
	GainControllerAdaptiveAnalog GainControllerMode = iota
	GainControllerAdaptiveDigital
	GainControllerFixedDigital
)

// HighPassFilter removes low-frequency content from the capture stream.
type HighPassFilter struct {
	Enabled bool
}

// EchoCanceller configures acoustic echo cancellation.
type EchoCanceller struct {
	Enabled    bool
	MobileMode bool

	// EnforceHighPassFiltering makes the canceller run its own high-pass
	// stage even when the standalone filter is off.
	EnforceHighPassFiltering bool
}

// GainController1 configures the legacy gain controller.
type GainController1 struct {
	Enabled bool
	Mode    GainControllerMode

	// TargetLevelDbfs is the target peak level in -dBFS (3 means -3 dBFS).
	TargetLevelDbfs int

	// CompressionGainDb is the maximum digital gain applied in dB.
	CompressionGainDb int

	EnableLimiter bool
}

// NoiseSuppression configures the noise suppressor.
type NoiseSuppression struct {
	Enabled bool
	Level   NoiseSuppressionLevel
}

// Config is the full engine configuration.
type Config struct {
	HighPassFilter   HighPassFilter
	EchoCanceller    EchoCanceller
	GainController1  GainController1
	NoiseSuppression NoiseSuppression
}

// Default gain controller parameters.
const (
	DefaultTargetLevelDbfs   = 3
	DefaultCompressionGainDb = 9
)

// DefaultConfig returns the engine defaults: every component disabled,
// enforced high-pass filtering on, gain controller tuned for speech.
func DefaultConfig() Config {
	return Config{
		EchoCanceller: EchoCanceller{
			EnforceHighPassFiltering: true,
		},
		GainController1: GainController1{
			Mode:              GainControllerAdaptiveAnalog,
			TargetLevelDbfs:   DefaultTargetLevelDbfs,
			CompressionGainDb: DefaultCompressionGainDb,
			EnableLimiter:     true,
		},
		NoiseSuppression: NoiseSuppression{
			Level: NoiseSuppressionModerate,
		},
	}
}
