package apm

import "github.com/tphakala/go-audio-apm/internal/simdops"

// Deinterleave splits a frame-major interleaved buffer into planar
// channels: dst[c][i] = src[i*len(dst)+c]. The channel count is len(dst).
// The frame count is that of the shortest channel, further limited to the
// whole frames held by src.
func Deinterleave(src []float32, dst [][]float32) {
	numChannels := len(dst)
	if numChannels == 0 {
		return
	}
	numFrames := frameCount(dst, len(src))

	switch numChannels {
	case monoChannels:
		copy(dst[0], src[:numFrames])
	case stereoChannels:
		left, right := dst[0][:numFrames], dst[1][:numFrames]
		for i := range numFrames {
			idx := i * stereoChannels
			left[i] = src[idx]
			right[i] = src[idx+1]
		}
	default:
		for i := range numFrames {
			base := i * numChannels
			for ch := range numChannels {
				dst[ch][i] = src[base+ch]
			}
		}
	}
}

// Interleave is the inverse of Deinterleave:
// dst[i*len(src)+c] = src[c][i]. The frame count is limited the same way.
func Interleave(src [][]float32, dst []float32) {
	numChannels := len(src)
	if numChannels == 0 {
		return
	}
	numFrames := frameCount(src, len(dst))

	switch numChannels {
	case monoChannels:
		copy(dst[:numFrames], src[0][:numFrames])
	case stereoChannels:
		simdops.Float32Ops().Interleave2(dst[:stereoChannels*numFrames], src[0][:numFrames], src[1][:numFrames])
	default:
		for i := range numFrames {
			base := i * numChannels
			for ch := range numChannels {
				dst[base+ch] = src[ch][i]
			}
		}
	}
}

// frameCount returns the number of frames both sides can hold.
func frameCount(planar [][]float32, interleavedLen int) int {
	n := interleavedLen / len(planar)
	for _, ch := range planar {
		n = min(n, len(ch))
	}
	return n
}

// Int16ToFloat32 converts int16 PCM to float32 in [-1, 1).
func Int16ToFloat32(dst []float32, src []int16) {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float32(src[i])
	}
	simdops.Float32Ops().Scale(dst[:n], dst[:n], invInt16Scale)
}

// Float32ToInt16 converts float32 samples to int16 PCM, clipping to [-1, 1].
func Float32ToInt16(dst []int16, src []float32) {
	n := min(len(dst), len(src))
	for i := range n {
		s := src[i]
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		dst[i] = int16(s * int16MaxF)
	}
}
