// Package simdops exposes the SIMD kernels used by the frame codec and the
// reference engine through one generic table per float type.
package simdops

import (
	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for supported sample types.
type Float interface {
	float32 | float64
}

// Ops is a table of SIMD-accelerated kernels for type F.
type Ops[F Float] struct {
	// DotProductUnsafe computes the dot product without bounds checking.
	// Slices must have equal length.
	DotProductUnsafe func(a, b []F) F

	// ConvolveValid computes the valid part of signal correlated with
	// kernel: dst[i] = sum_k signal[i+k]*kernel[k].
	ConvolveValid func(dst, signal, kernel []F)

	// Interleave2 interleaves two slices: dst[0]=a[0], dst[1]=b[0], ...
	Interleave2 func(dst, a, b []F)

	// Sum returns the sum of all elements.
	Sum func(a []F) F

	// Scale computes dst[i] = a[i] * s.
	Scale func(dst, a []F, s F)
}

var (
	ops32 = Ops[float32]{
		DotProductUnsafe: f32.DotProductUnsafe,
		ConvolveValid:    f32.ConvolveValid,
		Interleave2:      f32.Interleave2,
		Sum:              f32.Sum,
		Scale:            f32.Scale,
	}
	ops64 = Ops[float64]{
		DotProductUnsafe: f64.DotProductUnsafe,
		ConvolveValid:    f64.ConvolveValid,
		Interleave2:      f64.Interleave2,
		Sum:              f64.Sum,
		Scale:            f64.Scale,
	}
)

// For returns the Ops table for type F.
func For[F Float]() *Ops[F] {
	var zero F
	switch any(zero).(type) {
	case float32:
		return any(&ops32).(*Ops[F])
	case float64:
		return any(&ops64).(*Ops[F])
	default:
		panic("simdops: unsupported float type")
	}
}

// Float32Ops returns the float32 table.
func Float32Ops() *Ops[float32] {
	return &ops32
}

// Float64Ops returns the float64 table.
func Float64Ops() *Ops[float64] {
	return &ops64
}

// Energy returns the sum of squares of a.
func Energy[F Float](a []F) F {
	if len(a) == 0 {
		return 0
	}
	return For[F]().DotProductUnsafe(a, a)
}
