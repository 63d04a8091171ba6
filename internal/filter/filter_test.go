package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-audio-apm/internal/mathutil"
	"github.com/tphakala/go-audio-apm/internal/testutil"
)

func hpfSpec() Spec {
	return Spec{
		Kind:          HighPass,
		SampleRateHz:  48000,
		CutoffHz:      80,
		TransitionHz:  80,
		AttenuationDb: 40,
	}
}

func TestKaiserWindow(t *testing.T) {
	w := KaiserWindow(65, 5.0)
	require.Len(t, w, 65)
	testutil.AssertSymmetric(t, w, testutil.DefaultTolerance)
	assert.InDelta(t, 1.0, w[32], 1e-12)
	for i := 1; i <= 32; i++ {
		assert.LessOrEqual(t, w[i-1], w[i])
	}

	assert.Empty(t, KaiserWindow(0, 5))
	assert.Equal(t, []float64{1}, KaiserWindow(1, 5))
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Spec)
	}{
		{"zero rate", func(s *Spec) { s.SampleRateHz = 0 }},
		{"cutoff at nyquist", func(s *Spec) { s.CutoffHz = 24000 }},
		{"negative cutoff", func(s *Spec) { s.CutoffHz = -1 }},
		{"negative transition", func(s *Spec) { s.TransitionHz = -1 }},
		{"no attenuation", func(s *Spec) { s.AttenuationDb = 0 }},
		{"too many taps", func(s *Spec) { s.NumTaps = mathutil.MaxFilterLength + 1 }},
		{"unknown kind", func(s *Spec) { s.Kind = Kind(9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := hpfSpec()
			tt.modify(&s)
			require.ErrorIs(t, s.Validate(), ErrInvalidSpec)
			_, err := Design(s)
			require.ErrorIs(t, err, ErrInvalidSpec)
		})
	}

	require.NoError(t, hpfSpec().Validate())
}

func TestSpecTapsIsOdd(t *testing.T) {
	s := hpfSpec()
	s.NumTaps = 64
	assert.Equal(t, 65, s.Taps())

	s.NumTaps = 0
	assert.Equal(t, 1, s.Taps()%2)
}

func TestDesignLowPass(t *testing.T) {
	h, err := Design(Spec{
		Kind:          LowPass,
		SampleRateHz:  48000,
		CutoffHz:      4000,
		TransitionHz:  1000,
		AttenuationDb: 60,
	})
	require.NoError(t, err)

	testutil.AssertSymmetric(t, h, 1e-12)
	var sum float64
	for _, c := range h {
		sum += c
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "unity DC gain")

	mags := ResponseDB(h, 48000, []float64{0, 1000, 8000, 16000})
	assert.InDelta(t, 0.0, mags[0], 0.01)
	assert.InDelta(t, 0.0, mags[1], 0.1)
	assert.Less(t, mags[2], -55.0)
	assert.Less(t, mags[3], -55.0)
}

func TestDesignHighPass(t *testing.T) {
	h, err := Design(hpfSpec())
	require.NoError(t, err)
	testutil.AssertSymmetric(t, h, 1e-12)

	mags := ResponseDB(h, 48000, []float64{0, 20, 80, 300, 1000, 10000})
	assert.Less(t, mags[0], -100.0, "DC must be removed")
	assert.Less(t, mags[1], -30.0)
	assert.InDelta(t, -6.0, mags[2], 1.0, "cutoff is the -6 dB point")
	assert.InDelta(t, 0.0, mags[3], 0.2)
	assert.InDelta(t, 0.0, mags[4], 0.2)
	assert.InDelta(t, 0.0, mags[5], 0.2)
}

func TestFFTConvolverMatchesDirect(t *testing.T) {
	kernel := testutil.Sine(501, 100, 48000, 0.01)
	signal := testutil.Sine(3000, 997, 48000, 0.5)

	direct := make([]float64, len(signal)-len(kernel)+1)
	for i := range direct {
		for k, c := range kernel {
			direct[i] += signal[i+k] * c
		}
	}

	conv := NewFFTConvolver(kernel)
	require.NotNil(t, conv)
	assert.Equal(t, len(kernel), conv.KernelLen())

	got := make([]float64, len(direct))
	conv.Convolve(got, signal)
	assert.InDeltaSlice(t, direct, got, 1e-9)

	assert.Nil(t, NewFFTConvolver(nil))
}

func TestFIRStreamingMatchesOneShot(t *testing.T) {
	for _, taps := range []int{31, 601} {
		s := hpfSpec()
		s.NumTaps = taps
		h, err := Design(s)
		require.NoError(t, err)

		input := testutil.SineFloat32(480*6, 50, 48000, 0.5)

		whole := make([]float32, len(input))
		copy(whole, input)
		NewFIR(h, len(whole)).Process(whole)

		streamed := make([]float32, len(input))
		copy(streamed, input)
		fir := NewFIR(h, 480)
		assert.Equal(t, taps >= MinKernelForFFT, fir.UsesFFT())
		for off := 0; off < len(streamed); off += 480 {
			fir.Process(streamed[off : off+480])
		}

		assert.InDeltaSlice(t, whole, streamed, 1e-5, "taps=%d", taps)
		assert.Equal(t, (taps-1)/2, fir.Delay())
	}
}

func TestFIRRemovesDC(t *testing.T) {
	h, err := Design(hpfSpec())
	require.NoError(t, err)
	fir := NewFIR(h, 480)

	block := make([]float32, 480)
	var last []float32
	// Run well past the filter length so the step response has settled.
	for range (len(h) / 480) + 4 {
		for i := range block {
			block[i] = 0.5
		}
		fir.Process(block)
		last = block
	}
	assert.Less(t, testutil.RMS(last), 1e-3)

	fir.Reset()
	zero := make([]float32, 480)
	fir.Process(zero)
	testutil.AssertAllZero(t, zero)
}
