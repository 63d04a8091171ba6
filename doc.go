// Package apm bridges interleaved host audio frames to a WebRTC-style
// audio processing engine.
//
// Audio is exchanged in 10 ms frames at 48 kHz: 480 samples per channel,
// interleaved frame-major (sample i of channel c lives at index i*C+c).
// Capture (near-end, microphone) frames are processed in place; render
// (far-end, loudspeaker) frames are fed to the engine as an echo reference.
//
// # Features
//
//   - High-pass filter, echo cancellation, gain control and noise
//     suppression toggles with a stable, flat configuration schema
//   - float32 and int16 frame paths; float frames are converted to planar
//     buffers owned by the processor, int16 frames are passed through
//   - WebRTC-compatible status codes carried in returned errors
//   - Stream delay, mute, key-press and analog level hints
//   - Flat statistics snapshot with zero defaults for unavailable metrics
//   - Pluggable engines; a pure Go reference engine is used by default
//   - Optional Prometheus instrumentation and slog logging
//   - YAML configuration files
//
// # Quick Start
//
//	cfg := apm.DefaultConfig()
//	cfg.CaptureChannels = 2
//	p, err := apm.Create(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Destroy()
//
//	frame := make([]float32, 2*apm.NumSamplesPerFrame)
//	for readFrame(frame) {
//	    if err := p.ProcessRenderFloat32(farEnd, 1); err != nil {
//	        log.Print(err)
//	    }
//	    if err := p.ProcessCaptureFloat32(frame, 2); err != nil {
//	        log.Print(err)
//	    }
//	}
//
// # Status Codes
//
// Errors returned by a Processor wrap a [Status]. Use [StatusOf] to recover
// the numeric code:
//
//	if err := p.ProcessCaptureFloat32(frame, 2); err != nil {
//	    switch apm.StatusOf(err) {
//	    case apm.StatusBadParameter:
//	        // wrong channel count or frame length
//	    }
//	}
//
// # Concurrency
//
// A [Processor] is not safe for concurrent use. [Session] wraps one with a
// mutex and copies buffers, and [Table] hands out integer handles for hosts
// that cannot hold Go pointers.
package apm
