package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tphakala/go-audio-apm/internal/testutil"
)

func TestBesselI0(t *testing.T) {
	tests := []struct {
		name      string
		x         float64
		expected  float64
		tolerance float64
	}{
		{"Zero", 0.0, 1.0, 1e-15},
		{"Half", 0.5, 1.063483344, 1e-7},
		{"One", 1.0, 1.266065848, 1e-7},
		{"Three", 3.0, 4.880792565, 1e-7},
		{"Boundary 3.75", 3.75, 9.118945994, 1e-7},
		{"Five", 5.0, 27.23987183, 1e-7},
		{"Ten", 10.0, 2815.716628, 1e-6},
		{"Negative one", -1.0, 1.266065848, 1e-7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertRelativeError(t, tt.expected, BesselI0(tt.x), tt.tolerance)
		})
	}
}

func TestBesselI0_Monotonic(t *testing.T) {
	prev := BesselI0(0)
	for x := 0.1; x < 10.0; x += 0.1 {
		curr := BesselI0(x)
		assert.Greater(t, curr, prev, "not increasing at x=%v", x)
		prev = curr
	}
}

func TestKaiserBeta(t *testing.T) {
	assert.InDelta(t, 0.0, KaiserBeta(20), 0)
	assert.InDelta(t, 0.1102*(60-8.7), KaiserBeta(60), 1e-12)
	assert.Greater(t, KaiserBeta(40), 0.0)
	assert.Less(t, KaiserBeta(40), KaiserBeta(60))
}

func TestEstimateFilterLength(t *testing.T) {
	tests := []struct {
		name         string
		attenuation  float64
		transitionBW float64
	}{
		{"hpf 80 Hz at 48k", 40, 80.0 / 48000},
		{"moderate", 60, 0.05},
		{"zero bandwidth uses default", 60, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taps := EstimateFilterLength(tt.attenuation, tt.transitionBW)
			assert.Equal(t, 1, taps%2, "tap count must be odd")
			assert.GreaterOrEqual(t, taps, MinFilterLength)
			assert.LessOrEqual(t, taps, MaxFilterLength)
		})
	}

	assert.Equal(t, MaxFilterLength, EstimateFilterLength(200, 1e-6))
	assert.Equal(t, MinFilterLength, EstimateFilterLength(8, 0.4))
}

func TestLevelConversions(t *testing.T) {
	assert.InDelta(t, 1.0, DbToLinear(0), 1e-12)
	assert.InDelta(t, 2.0, DbToLinear(6.0206), 1e-4)
	assert.InDelta(t, -6.0206, LinearToDb(0.5), 1e-4)
	assert.InDelta(t, -200.0, LinearToDb(0), 1e-9)

	// A full-scale square wave has RMS 1.0.
	assert.InDelta(t, 0.0, RmsDbfs(480, 480), 1e-9)
	assert.InDelta(t, -200.0, RmsDbfs(0, 0), 1e-9)
}

func BenchmarkBesselI0(b *testing.B) {
	for b.Loop() {
		_ = BesselI0(7.5)
	}
}
