package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apm "github.com/tphakala/go-audio-apm"
)

const (
	bytesPerSample16   = 2
	statusInterval     = 5 * time.Second
	metricsReadTimeout = 5 * time.Second

	// Processed frames queued for the output writer before dropping.
	outputQueueFrames = 100
)

type liveOptions struct {
	farPath     string
	outPath     string
	duration    time.Duration
	metricsAddr string
}

func liveCommand(v *viper.Viper) *cobra.Command {
	var opts liveOptions

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Process the default microphone while playing a far-end file",
		Long: `Live opens the default duplex audio device at 48 kHz. The far-end file is played
on the loudspeaker and fed to the render path; microphone input is processed on the
capture path in the device callback.`,
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if opts.duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.duration)
				defer cancel()
			}
			return runLive(ctx, cfg, opts, logger)
		},
	}

	cmd.Flags().StringVar(&opts.farPath, "far", "", "Far-end WAV file to play (16-bit, 48 kHz)")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Write processed microphone audio to this WAV file")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

// liveSession is the state shared with the device callback. Only the
// callback touches the processor while the device runs.
type liveSession struct {
	proc *apm.Processor

	captureChannels int
	renderChannels  int

	far    []int16
	farPos int

	capture      *apm.Framer[int16]
	render       *apm.Framer[int16]
	captureBuf   []int16
	renderBuf    []int16
	inputScratch []int16
	playScratch  []int16

	out chan []int16

	frames   atomic.Int64
	rejected atomic.Int64
	dropped  atomic.Int64
}

func newLiveSession(p *apm.Processor, far []int16) *liveSession {
	cc, rc := p.CaptureChannels(), p.RenderChannels()
	return &liveSession{
		proc:            p,
		captureChannels: cc,
		renderChannels:  rc,
		far:             far,
		capture:         apm.NewFramer[int16](cc),
		render:          apm.NewFramer[int16](rc),
		captureBuf:      make([]int16, cc*apm.NumSamplesPerFrame),
		renderBuf:       make([]int16, rc*apm.NumSamplesPerFrame),
	}
}

// onData is the malgo duplex callback.
func (s *liveSession) onData(output, input []byte, frameCount uint32) {
	s.fillPlayback(output, int(frameCount))
	s.consumeCapture(input, int(frameCount))
}

// fillPlayback loops the far-end file into the output buffer and feeds the
// same samples to the render path.
func (s *liveSession) fillPlayback(output []byte, frameCount int) {
	if len(s.far) == 0 {
		clear(output)
		return
	}
	n := min(frameCount*s.renderChannels, len(output)/bytesPerSample16)
	if cap(s.playScratch) < n {
		s.playScratch = make([]int16, n)
	}
	samples := s.playScratch[:n]
	for i := range samples {
		samples[i] = s.far[s.farPos]
		s.farPos = (s.farPos + 1) % len(s.far)
		binary.LittleEndian.PutUint16(output[i*bytesPerSample16:], uint16(samples[i]))
	}
	s.render.Write(samples)

	for s.render.Next(s.renderBuf) {
		if err := s.proc.ProcessRenderInt16(s.renderBuf, s.renderChannels); err != nil {
			s.rejected.Add(1)
		}
	}
}

func (s *liveSession) consumeCapture(input []byte, frameCount int) {
	n := min(frameCount*s.captureChannels, len(input)/bytesPerSample16)
	if cap(s.inputScratch) < n {
		s.inputScratch = make([]int16, n)
	}
	samples := s.inputScratch[:n]
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(input[i*bytesPerSample16:]))
	}
	s.capture.Write(samples)

	for s.capture.Next(s.captureBuf) {
		if err := s.proc.ProcessCaptureInt16(s.captureBuf, s.captureChannels); err != nil {
			s.rejected.Add(1)
			continue
		}
		s.frames.Add(1)
		if s.out == nil {
			continue
		}
		select {
		case s.out <- append([]int16(nil), s.captureBuf...):
		default:
			s.dropped.Add(1)
		}
	}
}

func runLive(ctx context.Context, cfg apm.Config, opts liveOptions, logger *slog.Logger) error {
	var far []int16
	if opts.farPath != "" {
		var err error
		far, cfg.RenderChannels, err = loadInt16(opts.farPath)
		if err != nil {
			return err
		}
	}

	createOpts := []apm.Option{apm.WithLogger(logger)}
	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m, err := apm.NewMetrics(reg)
		if err != nil {
			return err
		}
		createOpts = append(createOpts, apm.WithMetrics(m))
		srv := serveMetrics(opts.metricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsReadTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	p, err := apm.Create(cfg, createOpts...)
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}
	defer p.Destroy()

	session := newLiveSession(p, far)

	var writerDone chan error
	if opts.outPath != "" {
		out, err := createWAVOutput(opts.outPath, bitsPerSample16, cfg.CaptureChannels)
		if err != nil {
			return err
		}
		session.out = make(chan []int16, outputQueueFrames)
		writerDone = make(chan error, 1)
		go func() {
			writerDone <- drainOutput(session.out, out)
		}()
	}

	if err := runDevice(ctx, cfg, session, logger); err != nil {
		if session.out != nil {
			close(session.out)
			<-writerDone
		}
		return err
	}

	if session.out != nil {
		close(session.out)
		if err := <-writerDone; err != nil {
			return err
		}
	}

	stats := p.Statistics()
	logger.Info("live session finished",
		"frames", session.frames.Load(),
		"rejected", session.rejected.Load(),
		"dropped", session.dropped.Load(),
		"delay_ms", stats.DelayMs,
		"erle_db", stats.EchoReturnLossEnhancement)
	return nil
}

// runDevice drives a duplex device until ctx is done. The device is fully
// stopped before it returns, so the processor is free again afterwards.
func runDevice(ctx context.Context, cfg apm.Config, session *liveSession, logger *slog.Logger) error {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return fmt.Errorf("failed to initialize audio context: %w", err)
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.CaptureChannels)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(cfg.RenderChannels)
	deviceConfig.SampleRate = apm.SampleRateHz
	deviceConfig.PeriodSizeInFrames = apm.NumSamplesPerFrame
	deviceConfig.Alsa.NoMMap = 1

	stopped := make(chan struct{})
	var stopOnce atomic.Bool
	callbacks := malgo.DeviceCallbacks{
		Data: session.onData,
		Stop: func() {
			if stopOnce.CompareAndSwap(false, true) {
				close(stopped)
			}
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize duplex device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	logger.Info("live processing started",
		"capture_channels", cfg.CaptureChannels,
		"render_channels", cfg.RenderChannels,
		"sample_rate", apm.SampleRateHz)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := device.Stop(); err != nil {
				return fmt.Errorf("failed to stop device: %w", err)
			}
			return nil
		case <-stopped:
			return errors.New("audio device stopped unexpectedly")
		case <-ticker.C:
			logger.Info("live status",
				"frames", session.frames.Load(),
				"rejected", session.rejected.Load(),
				"dropped", session.dropped.Load())
		}
	}
}

func drainOutput(frames <-chan []int16, out *wavOutput) error {
	var writeErr error
	for frame := range frames {
		if writeErr != nil {
			continue
		}
		writeErr = out.writeInt16(frame)
	}
	if err := out.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	return writeErr
}

// loadInt16 reads a whole WAV file as 16-bit interleaved samples.
func loadInt16(path string) (samples []int16, channels int, err error) {
	in, err := openWAVInput(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = in.Close() }()

	chunk := make([]int16, readChunkSamples)
	for {
		n, err := in.readInt16(chunk)
		if err != nil {
			return nil, 0, err
		}
		if n == 0 {
			break
		}
		samples = append(samples, chunk[:n]...)
	}
	// Keep whole sample frames so playback stays channel-aligned.
	samples = samples[:len(samples)-len(samples)%in.channels]
	return samples, in.channels, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadTimeout,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
