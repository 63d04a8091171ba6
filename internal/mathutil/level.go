package mathutil

import "math"

// minLevel keeps log10 finite for silent input.
const minLevel = 1e-10

// DbToLinear converts a gain in dB to a linear amplitude factor.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDb converts a linear amplitude to dB. Values at or below 1e-10
// map to -200 dB.
func LinearToDb(v float64) float64 {
	return 20 * math.Log10(max(v, minLevel))
}

// RmsDbfs returns the RMS level in dBFS of a block given its energy (sum of
// squares) and length, for full scale 1.0.
func RmsDbfs(energy float64, n int) float64 {
	if n <= 0 {
		return LinearToDb(0)
	}
	return LinearToDb(math.Sqrt(energy / float64(n)))
}
