package filter

import (
	"github.com/tphakala/simd/c128"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// MinKernelForFFT is the kernel length from which overlap-save FFT
	// convolution beats direct SIMD convolution with gonum's FFT.
	MinKernelForFFT = 400

	defaultFFTBlockSize = 512
)

// FFTConvolver performs overlap-save convolution of a fixed kernel.
// Each FFT block of fftSize samples yields fftSize-kernelLen+1 valid outputs;
// the first kernelLen-1 outputs of a block wrap around and are discarded.
type FFTConvolver struct {
	fft       *fourier.FFT
	fftSize   int
	blockSize int

	kernelFFT []complex128
	kernelLen int
	scale     float64 // gonum's inverse transform is unnormalized

	signalBlock []float64
	signalFFT   []complex128
	productFFT  []complex128
	ifftResult  []float64
}

// NewFFTConvolver transforms kernel once for reuse. It returns nil for an
// empty kernel.
func NewFFTConvolver(kernel []float64) *FFTConvolver {
	kernelLen := len(kernel)
	if kernelLen == 0 {
		return nil
	}

	fftSize := defaultFFTBlockSize
	for fftSize < 2*kernelLen {
		fftSize *= 2
	}
	fft := fourier.NewFFT(fftSize)

	// Circular convolution flips the kernel; pre-flip it so the output is
	// the same correlation f64.ConvolveValid computes.
	padded := make([]float64, fftSize)
	for i := range kernelLen {
		padded[i] = kernel[kernelLen-1-i]
	}
	fftLen := fftSize/2 + 1

	return &FFTConvolver{
		fft:         fft,
		fftSize:     fftSize,
		blockSize:   fftSize - kernelLen + 1,
		kernelFFT:   fft.Coefficients(nil, padded),
		kernelLen:   kernelLen,
		scale:       1.0 / float64(fftSize),
		signalBlock: make([]float64, fftSize),
		signalFFT:   make([]complex128, fftLen),
		productFFT:  make([]complex128, fftLen),
		ifftResult:  make([]float64, fftSize),
	}
}

// Convolve writes len(signal)-kernelLen+1 valid outputs to dst.
func (c *FFTConvolver) Convolve(dst, signal []float64) {
	outputLen := len(signal) - c.kernelLen + 1
	if outputLen <= 0 || len(dst) < outputLen {
		return
	}
	overlap := c.kernelLen - 1

	for out := 0; out < outputLen; {
		clear(c.signalBlock)
		copy(c.signalBlock, signal[out:min(out+c.fftSize, len(signal))])

		c.signalFFT = c.fft.Coefficients(c.signalFFT, c.signalBlock)
		c128.Mul(c.productFFT, c.signalFFT, c.kernelFFT)
		c.ifftResult = c.fft.Sequence(c.ifftResult, c.productFFT)
		f64.Scale(c.ifftResult, c.ifftResult, c.scale)

		n := min(c.blockSize, outputLen-out)
		copy(dst[out:out+n], c.ifftResult[overlap:overlap+n])
		out += n
	}
}

// KernelLen returns the kernel length.
func (c *FFTConvolver) KernelLen() int {
	return c.kernelLen
}
