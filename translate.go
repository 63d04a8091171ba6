package apm

import "github.com/tphakala/go-audio-apm/engine"

// translateConfig maps a Config onto the engine configuration. Every field
// is copied; enums convert by ordinal. When the high-pass filter is off the
// echo canceller must not re-introduce one, so EnforceHighPassFiltering is
// cleared. Channel counts are not part of the engine configuration.
func translateConfig(cfg Config) engine.Config {
	out := engine.DefaultConfig()

	out.HighPassFilter.Enabled = cfg.HighPassFilterEnabled

	out.EchoCanceller.Enabled = cfg.EchoCancellation.Enabled
	out.EchoCanceller.MobileMode = cfg.EchoCancellation.MobileMode
	if !cfg.HighPassFilterEnabled {
		out.EchoCanceller.EnforceHighPassFiltering = false
	}

	out.GainController1.Enabled = cfg.GainControl.Enabled
	out.GainController1.Mode = engine.GainControllerMode(cfg.GainControl.Mode)
	out.GainController1.TargetLevelDbfs = cfg.GainControl.TargetLevelDbfs
	out.GainController1.CompressionGainDb = cfg.GainControl.CompressionGainDb
	out.GainController1.EnableLimiter = cfg.GainControl.EnableLimiter

	out.NoiseSuppression.Enabled = cfg.NoiseSuppression.Enabled
	out.NoiseSuppression.Level = engine.NoiseSuppressionLevel(cfg.NoiseSuppression.SuppressionLevel)

	return out
}
