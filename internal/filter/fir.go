package filter

import "github.com/tphakala/go-audio-apm/internal/simdops"

// FIR streams a symmetric kernel over consecutive blocks of one channel,
// carrying len(kernel)-1 samples of history between calls. Output is delayed
// by Delay samples.
type FIR struct {
	kernel  []float64
	conv    *FFTConvolver // nil below MinKernelForFFT
	history int

	work []float64 // history followed by the current block
	out  []float64
}

// NewFIR returns a streaming filter for kernel, sized for blocks of up to
// maxBlock samples. Larger blocks grow the buffers on demand.
func NewFIR(kernel []float64, maxBlock int) *FIR {
	f := &FIR{
		kernel:  kernel,
		history: len(kernel) - 1,
	}
	if len(kernel) >= MinKernelForFFT {
		f.conv = NewFFTConvolver(kernel)
	}
	f.grow(maxBlock)
	return f
}

func (f *FIR) grow(block int) {
	if cap(f.out) >= block {
		return
	}
	work := make([]float64, f.history+block)
	copy(work, f.work[:min(len(f.work), f.history)])
	f.work = work
	f.out = make([]float64, block)
}

// Process filters block in place.
func (f *FIR) Process(block []float32) {
	n := len(block)
	if n == 0 {
		return
	}
	f.grow(n)

	work := f.work[:f.history+n]
	for i, s := range block {
		work[f.history+i] = float64(s)
	}

	out := f.out[:n]
	if f.conv != nil {
		f.conv.Convolve(out, work)
	} else {
		simdops.Float64Ops().ConvolveValid(out, work, f.kernel)
	}

	copy(work[:f.history], work[n:])
	for i, s := range out {
		block[i] = float32(s)
	}
}

// Reset clears the history.
func (f *FIR) Reset() {
	clear(f.work)
}

// Delay returns the group delay in samples.
func (f *FIR) Delay() int {
	return f.history / 2
}

// UsesFFT reports whether the FFT path is active.
func (f *FIR) UsesFFT() bool {
	return f.conv != nil
}
