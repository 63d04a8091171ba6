// Package testutil provides shared test helpers for signals and filters.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
)

// Default tolerances.
const (
	DefaultTolerance = 1e-10
	SampleTolerance  = 1e-6
	DBTolerance      = 0.01
)

// AssertSymmetric verifies that s[i] == s[n-1-i] within tolerance.
func AssertSymmetric(t *testing.T, s []float64, tolerance float64) bool {
	t.Helper()
	n := len(s)
	for i := range n / 2 {
		j := n - 1 - i
		if !assert.InDelta(t, s[i], s[j], tolerance, "not symmetric at %d/%d", i, j) {
			return false
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that every element is finite.
func AssertNoNaNOrInf[F float32 | float64](t *testing.T, s []F) bool {
	t.Helper()
	for i, v := range s {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return assert.Fail(t, "non-finite sample", "s[%d] = %v", i, f)
		}
	}
	return true
}

// AssertRelativeError verifies |actual-expected|/|expected| <= tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds %e (expected=%f, actual=%f)", relError, tolerance, expected, actual)
}

// AssertAllZero verifies every sample is exactly zero.
func AssertAllZero[T float32 | int16](t *testing.T, s []T) bool {
	t.Helper()
	for i, v := range s {
		if v != 0 {
			return assert.Fail(t, "non-zero sample", "s[%d] = %v", i, v)
		}
	}
	return true
}

// Sine returns n samples of a sine at freq Hz and the given amplitude.
func Sine(n int, freq, sampleRate, amplitude float64) []float64 {
	out := make([]float64, n)
	w := 2 * math.Pi * freq / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(w*float64(i))
	}
	return out
}

// SineFloat32 is Sine converted to float32.
func SineFloat32(n int, freq, sampleRate, amplitude float64) []float32 {
	s := Sine(n, freq, sampleRate, amplitude)
	out := make([]float32, n)
	for i, v := range s {
		out[i] = float32(v)
	}
	return out
}

// InterleavedRamp returns frames*channels samples where sample (i, c) is
// c*frames + i, scaled into [-1, 1). Every sample is distinct so layout bugs
// show up.
func InterleavedRamp(frames, channels int) []float32 {
	out := make([]float32, frames*channels)
	total := float32(frames * channels)
	for i := range frames {
		for c := range channels {
			out[i*channels+c] = float32(c*frames+i)/total*2 - 1
		}
	}
	return out
}

// RMS returns the root mean square of s.
func RMS[F float32 | float64](s []F) float64 {
	if len(s) == 0 {
		return 0
	}
	f := make([]float64, len(s))
	for i, v := range s {
		f[i] = float64(v)
	}
	return floats.Norm(f, 2) / math.Sqrt(float64(len(f)))
}
