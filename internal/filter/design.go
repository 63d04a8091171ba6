// Package filter designs and runs the linear-phase FIR filters used by the
// reference engine.
package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-audio-apm/internal/mathutil"
	"github.com/tphakala/go-audio-apm/internal/simdops"
)

// ErrInvalidSpec is wrapped by all design validation errors.
var ErrInvalidSpec = errors.New("invalid filter spec")

// Kind selects the filter response.
type Kind int

// Filter kinds.
const (
	LowPass Kind = iota
	HighPass
)

func (k Kind) String() string {
	switch k {
	case LowPass:
		return "lowpass"
	case HighPass:
		return "highpass"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Spec describes a filter in absolute frequencies.
type Spec struct {
	Kind          Kind
	SampleRateHz  float64
	CutoffHz      float64 // -6 dB point
	TransitionHz  float64 // full transition band width, centered on CutoffHz
	AttenuationDb float64 // stopband attenuation

	// NumTaps overrides the length estimated from TransitionHz and
	// AttenuationDb. It is rounded up to odd.
	NumTaps int
}

// Validate checks the spec.
func (s Spec) Validate() error {
	nyquist := s.SampleRateHz / 2
	switch {
	case s.Kind != LowPass && s.Kind != HighPass:
		return fmt.Errorf("%w: unknown kind %v", ErrInvalidSpec, s.Kind)
	case s.SampleRateHz <= 0:
		return fmt.Errorf("%w: sample rate %g", ErrInvalidSpec, s.SampleRateHz)
	case s.CutoffHz <= 0 || s.CutoffHz >= nyquist:
		return fmt.Errorf("%w: cutoff %g Hz outside (0, %g)", ErrInvalidSpec, s.CutoffHz, nyquist)
	case s.TransitionHz < 0:
		return fmt.Errorf("%w: negative transition band %g Hz", ErrInvalidSpec, s.TransitionHz)
	case s.AttenuationDb <= 0:
		return fmt.Errorf("%w: attenuation %g dB", ErrInvalidSpec, s.AttenuationDb)
	case s.NumTaps < 0 || s.NumTaps > mathutil.MaxFilterLength:
		return fmt.Errorf("%w: %d taps (maximum %d)", ErrInvalidSpec, s.NumTaps, mathutil.MaxFilterLength)
	}
	return nil
}

// Taps returns the filter length Design will produce.
func (s Spec) Taps() int {
	n := s.NumTaps
	if n == 0 {
		n = mathutil.EstimateFilterLength(s.AttenuationDb, s.TransitionHz/s.SampleRateHz)
	}
	if n%2 == 0 {
		n++
	}
	return max(n, mathutil.MinFilterLength)
}

// Design returns the coefficients of a Kaiser-windowed sinc filter. Lowpass
// filters have unity DC gain; highpass filters are the spectral inversion of
// the matching lowpass and have unity gain at Nyquist and zero at DC.
func Design(s Spec) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	numTaps := s.Taps()
	h := windowedSinc(numTaps, s.CutoffHz/s.SampleRateHz, mathutil.KaiserBeta(s.AttenuationDb))

	if s.Kind == HighPass {
		ops := simdops.Float64Ops()
		ops.Scale(h, h, -1)
		h[numTaps/2] += 1
	}
	return h, nil
}

// windowedSinc builds a unity-DC lowpass with normalized cutoff fc.
func windowedSinc(numTaps int, fc, beta float64) []float64 {
	window := KaiserWindow(numTaps, beta)
	h := make([]float64, numTaps)
	center := float64(numTaps-1) / 2

	for n := range numTaps {
		x := float64(n) - center
		if x == 0 {
			h[n] = 2 * fc * window[n]
			continue
		}
		h[n] = math.Sin(2*math.Pi*fc*x) / (math.Pi * x) * window[n]
	}

	ops := simdops.Float64Ops()
	if sum := ops.Sum(h); sum != 0 {
		ops.Scale(h, h, 1/sum)
	}
	return h
}

// KaiserWindow returns a symmetric Kaiser window with the given β, peak 1.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return nil
	}
	w := make([]float64, length)
	if length == 1 {
		w[0] = 1
		return w
	}

	alpha := float64(length-1) / 2
	norm := mathutil.BesselI0(beta)
	for n := range length {
		x := (float64(n) - alpha) / alpha
		w[n] = mathutil.BesselI0(beta*math.Sqrt(max(0, 1-x*x))) / norm
	}
	return w
}

// Response evaluates the magnitude response (linear) of coeffs at each of
// freqsHz.
func Response(coeffs []float64, sampleRateHz float64, freqsHz []float64) []float64 {
	mags := make([]float64, len(freqsHz))
	for k, f := range freqsHz {
		omega := 2 * math.Pi * f / sampleRateHz
		var re, im float64
		for n, c := range coeffs {
			re += c * math.Cos(omega*float64(n))
			im -= c * math.Sin(omega*float64(n))
		}
		mags[k] = math.Hypot(re, im)
	}
	return mags
}

// ResponseDB is Response in dB.
func ResponseDB(coeffs []float64, sampleRateHz float64, freqsHz []float64) []float64 {
	mags := Response(coeffs, sampleRateHz, freqsHz)
	for i, m := range mags {
		mags[i] = mathutil.LinearToDb(m)
	}
	return mags
}
