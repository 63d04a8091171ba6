package engine

// chunkSizeMs is the duration of one engine frame.
const chunkSizeMs = 10

// StreamConfig describes one audio stream.
type StreamConfig struct {
	SampleRateHz int
	NumChannels  int
}

// NewStreamConfig returns a StreamConfig for the given rate and channel count.
func NewStreamConfig(sampleRateHz, numChannels int) StreamConfig {
	return StreamConfig{SampleRateHz: sampleRateHz, NumChannels: numChannels}
}

// NumFrames returns the number of samples per channel in one 10 ms frame.
func (s StreamConfig) NumFrames() int {
	return s.SampleRateHz * chunkSizeMs / 1000
}

// NumSamples returns the total number of samples in one interleaved frame.
func (s StreamConfig) NumSamples() int {
	return s.NumFrames() * s.NumChannels
}

// ProcessingConfig groups the four stream layouts an engine is initialized
// with: capture input and output, render input and output.
type ProcessingConfig struct {
	InputStream         StreamConfig
	OutputStream        StreamConfig
	ReverseInputStream  StreamConfig
	ReverseOutputStream StreamConfig
}
