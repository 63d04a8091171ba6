package apm

// Frame geometry. The bridge only runs at 48 kHz with 10 ms frames.
const (
	SampleRateHz       = 48000
	FrameMs            = 10
	NumSamplesPerFrame = SampleRateHz * FrameMs / msPerSecond
)

const msPerSecond = 1000

// Channel constants
const (
	monoChannels   = 1 // Mono fast path in the interleave codec
	stereoChannels = 2 // Stereo fast path in the interleave codec
)

// Int16 conversion constants
const (
	int16Scale    = 32768.0
	int16MaxF     = 32767.0
	invInt16Scale = 1.0 / int16Scale
)

// SampleRate returns the fixed processing rate in Hz.
func SampleRate() int {
	return SampleRateHz
}

// SamplesPerFrame returns the number of samples per channel in one frame.
func SamplesPerFrame() int {
	return NumSamplesPerFrame
}
