package apm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-audio-apm/engine"
)

func TestTranslateHighPassRule(t *testing.T) {
	for _, hpf := range []bool{false, true} {
		for _, aec := range []bool{false, true} {
			for _, mobile := range []bool{false, true} {
				cfg := DefaultConfig()
				cfg.HighPassFilterEnabled = hpf
				cfg.EchoCancellation.Enabled = aec
				cfg.EchoCancellation.MobileMode = mobile

				out := translateConfig(cfg)
				assert.Equal(t, hpf, out.HighPassFilter.Enabled)
				assert.Equal(t, aec, out.EchoCanceller.Enabled)
				assert.Equal(t, mobile, out.EchoCanceller.MobileMode)
				if !hpf {
					assert.False(t, out.EchoCanceller.EnforceHighPassFiltering,
						"hpf=%v aec=%v must not enforce high-pass filtering", hpf, aec)
				} else {
					assert.Equal(t, engine.DefaultConfig().EchoCanceller.EnforceHighPassFiltering,
						out.EchoCanceller.EnforceHighPassFiltering)
				}
			}
		}
	}
}

func TestTranslateEnumsByOrdinal(t *testing.T) {
	levels := map[NsLevel]engine.NoiseSuppressionLevel{
		NsLevelLow:      engine.NoiseSuppressionLow,
		NsLevelModerate: engine.NoiseSuppressionModerate,
		NsLevelHigh:     engine.NoiseSuppressionHigh,
		NsLevelVeryHigh: engine.NoiseSuppressionVeryHigh,
	}
	for in, want := range levels {
		cfg := DefaultConfig()
		cfg.NoiseSuppression.SuppressionLevel = in
		assert.Equal(t, want, translateConfig(cfg).NoiseSuppression.Level, in.String())
	}

	modes := map[AgcMode]engine.GainControllerMode{
		AgcModeAdaptiveAnalog:  engine.GainControllerAdaptiveAnalog,
		AgcModeAdaptiveDigital: engine.GainControllerAdaptiveDigital,
		AgcModeFixedDigital:    engine.GainControllerFixedDigital,
	}
	for in, want := range modes {
		cfg := DefaultConfig()
		cfg.GainControl.Mode = in
		assert.Equal(t, want, translateConfig(cfg).GainController1.Mode, in.String())
	}
}

func TestTranslateCopiesGainAndNoise(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GainControl = GainControlConfig{
		Enabled:           true,
		Mode:              AgcModeFixedDigital,
		TargetLevelDbfs:   7,
		CompressionGainDb: 15,
		EnableLimiter:     false,
	}
	cfg.NoiseSuppression.Enabled = true

	out := translateConfig(cfg)
	assert.Equal(t, engine.GainController1{
		Enabled:           true,
		Mode:              engine.GainControllerFixedDigital,
		TargetLevelDbfs:   7,
		CompressionGainDb: 15,
		EnableLimiter:     false,
	}, out.GainController1)
	assert.True(t, out.NoiseSuppression.Enabled)
}
