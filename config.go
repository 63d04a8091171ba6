package apm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tphakala/go-audio-apm/engine"
)

// ErrInvalidConfig is wrapped by configuration parsing and validation errors.
var ErrInvalidConfig = errors.New("invalid config")

// NsLevel is the noise suppression level. Ordinals match the engine's.
type NsLevel int

// Noise suppression levels.
const (
	NsLevelLow NsLevel = iota
	NsLevelModerate
	NsLevelHigh
	NsLevelVeryHigh
)

var nsLevelNames = []string{"low", "moderate", "high", "very-high"}

// AgcMode is the gain control mode. Ordinals match the engine's.
type AgcMode int

// Gain control modes.
const (
	AgcModeAdaptiveAnalog AgcMode = iota
	AgcModeAdaptiveDigital
	AgcModeFixedDigital
)

var agcModeNames = []string{"adaptive-analog", "adaptive-digital", "fixed-digital"}

// Gain control parameter bounds accepted by Validate.
const (
	maxTargetLevelDbfs   = 31
	maxCompressionGainDb = 90
)

// EchoCancellationConfig configures the echo canceller.
type EchoCancellationConfig struct {
	Enabled    bool `yaml:"enabled"`
	MobileMode bool `yaml:"mobile_mode"`

	// StreamDelayMs is the initial render-to-capture delay hint. It is only
	// forwarded when Enabled is set.
	StreamDelayMs int `yaml:"stream_delay_ms"`
}

// GainControlConfig configures the gain controller.
type GainControlConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Mode              AgcMode `yaml:"mode"`
	TargetLevelDbfs   int     `yaml:"target_level_dbfs"`
	CompressionGainDb int     `yaml:"compression_gain_db"`
	EnableLimiter     bool    `yaml:"enable_limiter"`
}

// NoiseSuppressionConfig configures the noise suppressor.
type NoiseSuppressionConfig struct {
	Enabled          bool    `yaml:"enabled"`
	SuppressionLevel NsLevel `yaml:"level"`
}

// Config is the processor configuration.
type Config struct {
	HighPassFilterEnabled bool                   `yaml:"high_pass_filter"`
	EchoCancellation      EchoCancellationConfig `yaml:"echo_cancellation"`
	GainControl           GainControlConfig      `yaml:"gain_control"`
	NoiseSuppression      NoiseSuppressionConfig `yaml:"noise_suppression"`

	// CaptureChannels and RenderChannels fix the frame layouts at Create.
	// ApplyConfig ignores them.
	CaptureChannels int `yaml:"capture_channels"`
	RenderChannels  int `yaml:"render_channels"`
}

// DefaultConfig returns a mono/mono configuration with only the high-pass
// filter enabled. Gain control parameters carry the engine defaults so that
// enabling it alone gives a sensible setup.
func DefaultConfig() Config {
	return Config{
		HighPassFilterEnabled: true,
		GainControl: GainControlConfig{
			Mode:              AgcModeAdaptiveDigital,
			TargetLevelDbfs:   engine.DefaultTargetLevelDbfs,
			CompressionGainDb: engine.DefaultCompressionGainDb,
			EnableLimiter:     true,
		},
		NoiseSuppression: NoiseSuppressionConfig{
			SuppressionLevel: NsLevelModerate,
		},
		CaptureChannels: monoChannels,
		RenderChannels:  monoChannels,
	}
}

// Validate checks cfg for values the engine would reject. Create does not
// call it; it is for hosts that want errors before touching the engine.
func (c Config) Validate() error {
	var errs []error

	if c.CaptureChannels <= 0 {
		errs = append(errs, fmt.Errorf("%w: capture_channels %d must be positive", ErrInvalidConfig, c.CaptureChannels))
	}
	if c.RenderChannels <= 0 {
		errs = append(errs, fmt.Errorf("%w: render_channels %d must be positive", ErrInvalidConfig, c.RenderChannels))
	}
	if c.EchoCancellation.StreamDelayMs < 0 {
		errs = append(errs, fmt.Errorf("%w: stream_delay_ms %d is negative", ErrInvalidConfig, c.EchoCancellation.StreamDelayMs))
	}
	if !c.GainControl.Mode.valid() {
		errs = append(errs, fmt.Errorf("%w: gain_control.mode %d out of range", ErrInvalidConfig, int(c.GainControl.Mode)))
	}
	if c.GainControl.TargetLevelDbfs < 0 || c.GainControl.TargetLevelDbfs > maxTargetLevelDbfs {
		errs = append(errs, fmt.Errorf("%w: target_level_dbfs %d outside [0, %d]",
			ErrInvalidConfig, c.GainControl.TargetLevelDbfs, maxTargetLevelDbfs))
	}
	if c.GainControl.CompressionGainDb < 0 || c.GainControl.CompressionGainDb > maxCompressionGainDb {
		errs = append(errs, fmt.Errorf("%w: compression_gain_db %d outside [0, %d]",
			ErrInvalidConfig, c.GainControl.CompressionGainDb, maxCompressionGainDb))
	}
	if !c.NoiseSuppression.SuppressionLevel.valid() {
		errs = append(errs, fmt.Errorf("%w: noise_suppression.level %d out of range",
			ErrInvalidConfig, int(c.NoiseSuppression.SuppressionLevel)))
	}

	return errors.Join(errs...)
}

func (l NsLevel) valid() bool {
	return l >= NsLevelLow && l <= NsLevelVeryHigh
}

// String returns the level name, or NsLevel(n) when out of range.
func (l NsLevel) String() string {
	if l.valid() {
		return nsLevelNames[l]
	}
	return "NsLevel(" + strconv.Itoa(int(l)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (l NsLevel) MarshalText() ([]byte, error) {
	if !l.valid() {
		return nil, fmt.Errorf("%w: noise suppression level %d", ErrInvalidConfig, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *NsLevel) UnmarshalText(text []byte) error {
	v, err := ParseNsLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ParseNsLevel parses a level name ("low", "moderate", "high", "very-high")
// or its ordinal.
func ParseNsLevel(s string) (NsLevel, error) {
	i, err := parseEnum(s, nsLevelNames)
	if err != nil {
		return 0, fmt.Errorf("%w: noise suppression level %q", ErrInvalidConfig, s)
	}
	return NsLevel(i), nil
}

func (m AgcMode) valid() bool {
	return m >= AgcModeAdaptiveAnalog && m <= AgcModeFixedDigital
}

// String returns the mode name, or AgcMode(n) when out of range.
func (m AgcMode) String() string {
	if m.valid() {
		return agcModeNames[m]
	}
	return "AgcMode(" + strconv.Itoa(int(m)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (m AgcMode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("%w: gain control mode %d", ErrInvalidConfig, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *AgcMode) UnmarshalText(text []byte) error {
	v, err := ParseAgcMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseAgcMode parses a mode name ("adaptive-analog", "adaptive-digital",
// "fixed-digital") or its ordinal.
func ParseAgcMode(s string) (AgcMode, error) {
	i, err := parseEnum(s, agcModeNames)
	if err != nil {
		return 0, fmt.Errorf("%w: gain control mode %q", ErrInvalidConfig, s)
	}
	return AgcMode(i), nil
}

// parseEnum accepts a name from names (case-insensitive, '_' and '-' are
// interchangeable) or a decimal ordinal within range.
func parseEnum(s string, names []string) (int, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, name := range names {
		if norm == name {
			return i, nil
		}
	}
	i, err := strconv.Atoi(norm)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(names) {
		return 0, strconv.ErrRange
	}
	return i, nil
}
