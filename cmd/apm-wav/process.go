package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/floats"

	apm "github.com/tphakala/go-audio-apm"
)

type processOptions struct {
	nearPath string
	farPath  string
	outPath  string
	useInt16 bool
}

// processStats summarizes a file run.
type processStats struct {
	frames      int
	frameErrors int
	inputLevel  levelMeter
	outputLevel levelMeter
	final       apm.Stats
}

func processCommand(v *viper.Viper) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a near-end WAV file, optionally against a far-end reference",
		Long: `Process reads a 48 kHz near-end (microphone) recording and writes the processed
result. When --far is given, each far-end frame is fed to the render path before the
matching near-end frame, as a live host would.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			cfg, err := buildConfig(v)
			if err != nil {
				return err
			}

			start := time.Now()
			stats, err := processFile(cfg, opts, logger)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), opts, stats, time.Since(start))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.nearPath, "near", "", "Near-end (microphone) WAV file")
	cmd.Flags().StringVar(&opts.farPath, "far", "", "Far-end (loudspeaker) WAV file")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Output WAV file")
	cmd.Flags().BoolVar(&opts.useInt16, "int16", false, "Use the int16 frame path")
	_ = cmd.MarkFlagRequired("near")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// processFile runs the near-end file through a processor and writes the
// result.
func processFile(cfg apm.Config, opts processOptions, logger *slog.Logger) (stats *processStats, err error) {
	near, err := openWAVInput(opts.nearPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = near.Close() }()

	var far *wavInput
	if opts.farPath != "" {
		far, err = openWAVInput(opts.farPath)
		if err != nil {
			return nil, err
		}
		defer func() { _ = far.Close() }()
	}

	// The files define the stream layouts.
	cfg.CaptureChannels = near.channels
	cfg.RenderChannels = near.channels
	if far != nil {
		cfg.RenderChannels = far.channels
	}

	p, err := apm.Create(cfg, apm.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}
	defer p.Destroy()

	bitDepth := near.bitDepth
	if opts.useInt16 {
		bitDepth = bitsPerSample16
	}
	out, err := createWAVOutput(opts.outPath, bitDepth, near.channels)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	logger.Info("processing",
		"near", opts.nearPath,
		"far", opts.farPath,
		"channels", near.channels,
		"bit_depth", near.bitDepth,
		"int16", opts.useInt16)

	if opts.useInt16 {
		stats, err = runInt16(p, near, far, out, logger)
	} else {
		stats, err = runFloat(p, near, far, out, logger)
	}
	if err != nil {
		return nil, err
	}
	if stats.frames == 0 {
		return nil, fmt.Errorf("%w: %s", errNoFrames, opts.nearPath)
	}
	stats.final = p.Statistics()
	return stats, nil
}

func runFloat(p *apm.Processor, near, far *wavInput, out *wavOutput, logger *slog.Logger) (*processStats, error) {
	nearSrc := newFrameSource(near.channels, near.readFloat)
	frame := make([]float32, near.channels*apm.NumSamplesPerFrame)

	var farSrc *frameSource[float32]
	var farFrame []float32
	if far != nil {
		farSrc = newFrameSource(far.channels, far.readFloat)
		farFrame = make([]float32, far.channels*apm.NumSamplesPerFrame)
	}

	stats := &processStats{}
	for {
		n, err := nearSrc.next(frame)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return stats, nil
		}

		if farSrc != nil {
			if fn, err := farSrc.next(farFrame); err != nil {
				return nil, err
			} else if fn > 0 {
				if err := p.ProcessRenderFloat32(farFrame, far.channels); err != nil {
					logger.Warn("render frame rejected", "frame", stats.frames, "status", apm.StatusOf(err))
				}
			}
		}

		stats.inputLevel.addFloat(frame[:n])
		if err := p.ProcessCaptureFloat32(frame, near.channels); err != nil {
			stats.frameErrors++
			logger.Warn("capture frame rejected", "frame", stats.frames, "status", apm.StatusOf(err))
		}
		stats.outputLevel.addFloat(frame[:n])
		stats.frames++

		if err := out.writeFloat(frame[:n]); err != nil {
			return nil, fmt.Errorf("failed to write output: %w", err)
		}
	}
}

func runInt16(p *apm.Processor, near, far *wavInput, out *wavOutput, logger *slog.Logger) (*processStats, error) {
	nearSrc := newFrameSource(near.channels, near.readInt16)
	frame := make([]int16, near.channels*apm.NumSamplesPerFrame)

	var farSrc *frameSource[int16]
	var farFrame []int16
	if far != nil {
		farSrc = newFrameSource(far.channels, far.readInt16)
		farFrame = make([]int16, far.channels*apm.NumSamplesPerFrame)
	}

	stats := &processStats{}
	for {
		n, err := nearSrc.next(frame)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return stats, nil
		}

		if farSrc != nil {
			if fn, err := farSrc.next(farFrame); err != nil {
				return nil, err
			} else if fn > 0 {
				if err := p.ProcessRenderInt16(farFrame, far.channels); err != nil {
					logger.Warn("render frame rejected", "frame", stats.frames, "status", apm.StatusOf(err))
				}
			}
		}

		stats.inputLevel.addInt16(frame[:n])
		if err := p.ProcessCaptureInt16(frame, near.channels); err != nil {
			stats.frameErrors++
			logger.Warn("capture frame rejected", "frame", stats.frames, "status", apm.StatusOf(err))
		}
		stats.outputLevel.addInt16(frame[:n])
		stats.frames++

		if err := out.writeInt16(frame[:n]); err != nil {
			return nil, fmt.Errorf("failed to write output: %w", err)
		}
	}
}

// levelMeter accumulates signal energy for an RMS readout.
type levelMeter struct {
	scratch []float64
	energy  float64
	samples int
}

func (m *levelMeter) addFloat(s []float32) {
	buf := m.grow(len(s))
	for i, v := range s {
		buf[i] = float64(v)
	}
	m.energy += floats.Dot(buf, buf)
	m.samples += len(s)
}

func (m *levelMeter) addInt16(s []int16) {
	buf := m.grow(len(s))
	for i, v := range s {
		buf[i] = float64(v) / 32768
	}
	m.energy += floats.Dot(buf, buf)
	m.samples += len(s)
}

func (m *levelMeter) grow(n int) []float64 {
	if cap(m.scratch) < n {
		m.scratch = make([]float64, n)
	}
	return m.scratch[:n]
}

// dbfs returns the RMS level in dBFS, or -Inf for silence.
func (m *levelMeter) dbfs() float64 {
	if m.samples == 0 || m.energy == 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(m.energy/float64(m.samples))
}

func printSummary(w io.Writer, opts processOptions, stats *processStats, elapsed time.Duration) {
	audioSeconds := float64(stats.frames) * apm.FrameMs / 1000
	_, _ = fmt.Fprintf(w, "Processed %s -> %s\n", filepath.Base(opts.nearPath), filepath.Base(opts.outPath))
	_, _ = fmt.Fprintf(w, "  %d frames (%.2fs of audio), %d rejected\n", stats.frames, audioSeconds, stats.frameErrors)
	_, _ = fmt.Fprintf(w, "  Level: %.1f dBFS -> %.1f dBFS\n", stats.inputLevel.dbfs(), stats.outputLevel.dbfs())
	if elapsed > 0 {
		_, _ = fmt.Fprintf(w, "  Duration: %.2fs, Speed: %.1fx realtime\n", elapsed.Seconds(), audioSeconds/elapsed.Seconds())
	}
	if opts.farPath != "" {
		s := stats.final
		_, _ = fmt.Fprintf(w, "  ERL: %.1f dB, ERLE: %.1f dB, delay: %d ms (median %d, std %d)\n",
			s.EchoReturnLoss, s.EchoReturnLossEnhancement, s.DelayMs, s.DelayMedianMs, s.DelayStdMs)
		_, _ = fmt.Fprintf(w, "  Residual echo likelihood: %.2f, divergent filter fraction: %.2f\n",
			s.ResidualEchoLikelihood, s.DivergentFilterFraction)
	}
}

var errNoFrames = errors.New("input holds no audio")
