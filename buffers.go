package apm

// frameBuffers holds one planar frame. channels[c] is a fixed view into a
// single backing array; the views are carved once and never re-pointed, so
// the channel table can be handed to the engine on every call.
type frameBuffers struct {
	channels [][]float32
}

func newFrameBuffers(numChannels, numFrames int) *frameBuffers {
	data := make([]float32, numChannels*numFrames)
	channels := make([][]float32, numChannels)
	for ch := range numChannels {
		channels[ch] = data[ch*numFrames : (ch+1)*numFrames : (ch+1)*numFrames]
	}
	return &frameBuffers{channels: channels}
}

// numChannels returns the channel count the buffers were sized for.
func (b *frameBuffers) numChannels() int {
	return len(b.channels)
}
