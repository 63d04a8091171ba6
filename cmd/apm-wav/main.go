// Command apm-wav runs audio through the frame bridge.
//
// Usage:
//
//	apm-wav process --near mic.wav --far speaker.wav --out clean.wav --aec --ns
//	apm-wav process --near mic.wav --out clean.wav --int16 --agc --agc-mode fixed-digital
//	apm-wav live --far speaker.wav --duration 30s --aec
//	apm-wav info --response
//
// Processing options can also come from a YAML file (--config) or from APM_
// environment variables (APM_NS_LEVEL=high). Flags given on the command line
// win over both.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apm "github.com/tphakala/go-audio-apm"
)

const envPrefix = "APM"

// Flag keys shared by the processing commands.
const (
	keyConfig          = "config"
	keyLogLevel        = "log-level"
	keyHPF             = "hpf"
	keyAEC             = "aec"
	keyAECMobile       = "aec-mobile"
	keyStreamDelay     = "stream-delay"
	keyAGC             = "agc"
	keyAGCMode         = "agc-mode"
	keyAGCTarget       = "agc-target"
	keyAGCGain         = "agc-gain"
	keyAGCLimiter      = "agc-limiter"
	keyNS              = "ns"
	keyNSLevel         = "ns-level"
	keyCaptureChannels = "capture-channels"
	keyRenderChannels  = "render-channels"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCommand builds the command tree. Each invocation gets its own viper
// instance so commands can be exercised from tests.
func rootCommand() *cobra.Command {
	v := newViper()

	rootCmd := &cobra.Command{
		Use:           "apm-wav",
		Short:         "Run audio through the echo/noise/gain processing bridge",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	setupFlags(rootCmd)
	// BindPFlags only fails for a nil flag set.
	_ = v.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		processCommand(v),
		liveCommand(v),
		infoCommand(v),
	)
	return rootCmd
}

// newViper returns a viper instance reading APM_ environment variables.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func setupFlags(rootCmd *cobra.Command) {
	def := apm.DefaultConfig()
	f := rootCmd.PersistentFlags()

	f.String(keyConfig, "", "YAML configuration file")
	f.String(keyLogLevel, "info", "Log level: debug, info, warn, error")

	f.Bool(keyHPF, def.HighPassFilterEnabled, "Enable the high-pass filter")
	f.Bool(keyAEC, def.EchoCancellation.Enabled, "Enable echo cancellation")
	f.Bool(keyAECMobile, def.EchoCancellation.MobileMode, "Use the mobile echo canceller")
	f.Int(keyStreamDelay, def.EchoCancellation.StreamDelayMs, "Render-to-capture delay in ms")
	f.Bool(keyAGC, def.GainControl.Enabled, "Enable gain control")
	f.String(keyAGCMode, def.GainControl.Mode.String(), "Gain control mode: adaptive-analog, adaptive-digital, fixed-digital")
	f.Int(keyAGCTarget, def.GainControl.TargetLevelDbfs, "Gain control target level in -dBFS")
	f.Int(keyAGCGain, def.GainControl.CompressionGainDb, "Gain control compression gain in dB")
	f.Bool(keyAGCLimiter, def.GainControl.EnableLimiter, "Enable the gain control limiter")
	f.Bool(keyNS, def.NoiseSuppression.Enabled, "Enable noise suppression")
	f.String(keyNSLevel, def.NoiseSuppression.SuppressionLevel.String(), "Noise suppression level: low, moderate, high, very-high")
	f.Int(keyCaptureChannels, def.CaptureChannels, "Capture channels (live mode; files use their own layout)")
	f.Int(keyRenderChannels, def.RenderChannels, "Render channels (live mode; files use their own layout)")
}

// buildConfig resolves the processing configuration: defaults, then the
// config file, then every flag or environment variable that was set.
func buildConfig(v *viper.Viper) (apm.Config, error) {
	cfg := apm.DefaultConfig()
	if path := v.GetString(keyConfig); path != "" {
		loaded, err := apm.LoadConfigFile(path)
		if err != nil {
			return apm.Config{}, err
		}
		cfg = loaded
	}

	if v.IsSet(keyHPF) {
		cfg.HighPassFilterEnabled = v.GetBool(keyHPF)
	}
	if v.IsSet(keyAEC) {
		cfg.EchoCancellation.Enabled = v.GetBool(keyAEC)
	}
	if v.IsSet(keyAECMobile) {
		cfg.EchoCancellation.MobileMode = v.GetBool(keyAECMobile)
	}
	if v.IsSet(keyStreamDelay) {
		cfg.EchoCancellation.StreamDelayMs = v.GetInt(keyStreamDelay)
	}
	if v.IsSet(keyAGC) {
		cfg.GainControl.Enabled = v.GetBool(keyAGC)
	}
	if v.IsSet(keyAGCMode) {
		mode, err := apm.ParseAgcMode(v.GetString(keyAGCMode))
		if err != nil {
			return apm.Config{}, err
		}
		cfg.GainControl.Mode = mode
	}
	if v.IsSet(keyAGCTarget) {
		cfg.GainControl.TargetLevelDbfs = v.GetInt(keyAGCTarget)
	}
	if v.IsSet(keyAGCGain) {
		cfg.GainControl.CompressionGainDb = v.GetInt(keyAGCGain)
	}
	if v.IsSet(keyAGCLimiter) {
		cfg.GainControl.EnableLimiter = v.GetBool(keyAGCLimiter)
	}
	if v.IsSet(keyNS) {
		cfg.NoiseSuppression.Enabled = v.GetBool(keyNS)
	}
	if v.IsSet(keyNSLevel) {
		level, err := apm.ParseNsLevel(v.GetString(keyNSLevel))
		if err != nil {
			return apm.Config{}, err
		}
		cfg.NoiseSuppression.SuppressionLevel = level
	}
	if v.IsSet(keyCaptureChannels) {
		cfg.CaptureChannels = v.GetInt(keyCaptureChannels)
	}
	if v.IsSet(keyRenderChannels) {
		cfg.RenderChannels = v.GetInt(keyRenderChannels)
	}

	if err := cfg.Validate(); err != nil {
		return apm.Config{}, err
	}
	return cfg, nil
}

var errUnknownLogLevel = errors.New("unknown log level")

// newLogger returns a text logger on stderr at the configured level.
func newLogger(v *viper.Viper) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(keyLogLevel))); err != nil {
		return nil, fmt.Errorf("%w: %q", errUnknownLogLevel, v.GetString(keyLogLevel))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
