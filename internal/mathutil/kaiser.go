// Package mathutil provides the numeric helpers behind filter design and
// level handling in the reference engine.
package mathutil

import "math"

// BesselI0 computes the modified Bessel function of the first kind, order
// zero, using the Abramowitz & Stegun polynomial approximations. Accuracy is
// about 1e-7 relative, plenty for window design.
func BesselI0(x float64) float64 {
	ax := math.Abs(x)

	if ax < besselSmallArg {
		t := x / besselSmallArg
		t *= t
		return 1.0 + t*(i0Small[0]+t*(i0Small[1]+t*(i0Small[2]+
			t*(i0Small[3]+t*(i0Small[4]+t*i0Small[5])))))
	}

	t := besselSmallArg / ax
	p := i0Large[8]
	for k := 7; k >= 0; k-- {
		p = i0Large[k] + t*p
	}
	return math.Exp(ax) * p / math.Sqrt(ax)
}

// KaiserBeta returns the Kaiser window β for a stopband attenuation in dB
// (Kaiser & Schafer).
func KaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > kaiserAttHigh:
		return kaiserHighSlope * (attenuation - kaiserHighOffset)
	case attenuation >= kaiserAttMedium:
		d := attenuation - kaiserAttMedium
		return kaiserMediumCoeff1*math.Pow(d, kaiserMediumPower) + kaiserMediumCoeff2*d
	default:
		return 0
	}
}

// EstimateFilterLength returns the odd tap count needed for the given
// attenuation (dB) and transition bandwidth (fraction of the sample rate),
// clamped to [MinFilterLength, MaxFilterLength].
func EstimateFilterLength(attenuation, transitionBW float64) int {
	if transitionBW <= 0 {
		transitionBW = defaultTransitionBW
	}

	n := (attenuation - kaiserLengthOffset) / (kaiserLengthSlope * 2 * math.Pi * transitionBW)
	taps := int(math.Ceil(n))
	if taps%2 == 0 {
		taps++
	}
	return min(max(taps, MinFilterLength), MaxFilterLength)
}

// Filter length bounds.
const (
	MinFilterLength = 3
	MaxFilterLength = 8191
)

const (
	besselSmallArg = 3.75

	kaiserAttHigh      = 50.0
	kaiserAttMedium    = 21.0
	kaiserHighSlope    = 0.1102
	kaiserHighOffset   = 8.7
	kaiserMediumCoeff1 = 0.5842
	kaiserMediumPower  = 0.4
	kaiserMediumCoeff2 = 0.07886

	kaiserLengthOffset  = 8.0
	kaiserLengthSlope   = 2.285
	defaultTransitionBW = 0.01
)

// Polynomial coefficients for I0, Abramowitz & Stegun 9.8.1 and 9.8.2.
var (
	i0Small = [6]float64{3.5156229, 3.0899424, 1.2067492, 0.2659732, 0.360768e-1, 0.45813e-2}
	i0Large = [9]float64{
		0.39894228, 0.1328592e-1, 0.225319e-2, -0.157565e-2, 0.916281e-2,
		-0.2057706e-1, 0.2635537e-1, -0.1647633e-1, 0.392377e-2,
	}
)
