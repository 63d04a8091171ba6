package main

import (
	"bytes"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apm "github.com/tphakala/go-audio-apm"
)

// writeTestWAV writes interleaved 16-bit samples to a 48 kHz WAV file.
func writeTestWAV(t *testing.T, path string, channels int, samples []int16) {
	t.Helper()
	out, err := createWAVOutput(path, bitsPerSample16, channels)
	require.NoError(t, err)
	require.NoError(t, out.writeInt16(samples))
	require.NoError(t, out.Close())
}

func sineInt16(frames, channels int, freq, amplitude float64) []int16 {
	out := make([]int16, frames*channels)
	for i := range frames {
		v := int16(amplitude * maxInt16 * math.Sin(2*math.Pi*freq*float64(i)/apm.SampleRateHz))
		for c := range channels {
			out[i*channels+c] = v
		}
	}
	return out
}

func TestOpenWAVInput_FileNotFound(t *testing.T) {
	_, err := openWAVInput("/nonexistent/file.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input file")
}

func TestOpenWAVInput_InvalidWAV(t *testing.T) {
	invalidFile := filepath.Join(t.TempDir(), "invalid.wav")
	require.NoError(t, os.WriteFile(invalidFile, []byte("not a wav file"), 0o644))

	_, err := openWAVInput(invalidFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid WAV file")
}

func TestOpenWAVInput_WrongRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "44k.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, 44100, bitsPerSample16, 1, wavFormatPCM)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           make([]int, 100),
		Format:         &audio.Format{NumChannels: 1, SampleRate: 44100},
		SourceBitDepth: bitsPerSample16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	_, err = openWAVInput(path)
	assert.ErrorIs(t, err, errWrongSampleRate)
}

func TestCreateWAVOutput_InvalidDirectory(t *testing.T) {
	_, err := createWAVOutput("/nonexistent/dir/output.wav", bitsPerSample16, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	samples := sineInt16(1000, 2, 440, 0.5)
	writeTestWAV(t, path, 2, samples)

	in, err := openWAVInput(path)
	require.NoError(t, err)
	defer func() { _ = in.Close() }()
	assert.Equal(t, 2, in.channels)
	assert.Equal(t, 16, in.bitDepth)

	got := make([]int16, len(samples)+10)
	n, err := in.readInt16(got)
	require.NoError(t, err)
	assert.Equal(t, len(samples), n)
	assert.Equal(t, samples, got[:n])
}

func TestWAVReadFloatScales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	writeTestWAV(t, path, 1, []int16{0, 16384, -32767})

	in, err := openWAVInput(path)
	require.NoError(t, err)
	defer func() { _ = in.Close() }()

	got := make([]float32, 3)
	n, err := in.readFloat(got)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	assert.InDelta(t, 0, got[0], 1e-6)
	assert.InDelta(t, 0.5, got[1], 1e-4)
	assert.InDelta(t, -1, got[2], 1e-6)
}

func TestFrameSourcePadsTail(t *testing.T) {
	src := make([]int16, apm.NumSamplesPerFrame+100)
	for i := range src {
		src[i] = int16(i%100 + 1)
	}
	pos := 0
	read := func(dst []int16) (int, error) {
		n := copy(dst, src[pos:])
		pos += n
		return n, nil
	}

	fs := newFrameSource(1, read)
	frame := make([]int16, apm.NumSamplesPerFrame)

	n, err := fs.next(frame)
	require.NoError(t, err)
	assert.Equal(t, apm.NumSamplesPerFrame, n)
	assert.Equal(t, src[:apm.NumSamplesPerFrame], frame)

	n, err = fs.next(frame)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, src[apm.NumSamplesPerFrame:], frame[:100])
	for _, s := range frame[100:] {
		require.Zero(t, s)
	}

	n, err = fs.next(frame)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLevelMeter(t *testing.T) {
	var m levelMeter
	assert.True(t, math.IsInf(m.dbfs(), -1))

	s := make([]float32, 4800)
	for i := range s {
		s[i] = float32(math.Sin(2 * math.Pi * 1000 * float64(i) / apm.SampleRateHz))
	}
	m.addFloat(s)
	assert.InDelta(t, -3.01, m.dbfs(), 0.05)
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	nearPath := filepath.Join(dir, "near.wav")
	farPath := filepath.Join(dir, "far.wav")
	outPath := filepath.Join(dir, "out.wav")

	// 20.5 frames of stereo near-end, 2 frames of mono far-end. The run is
	// long enough for the high-pass group delay not to skew the levels.
	nearFrames := 20*apm.NumSamplesPerFrame + apm.NumSamplesPerFrame/2
	writeTestWAV(t, nearPath, 2, sineInt16(nearFrames, 2, 1000, 0.25))
	writeTestWAV(t, farPath, 1, sineInt16(2*apm.NumSamplesPerFrame, 1, 300, 0.25))

	for _, useInt16 := range []bool{false, true} {
		opts := processOptions{nearPath: nearPath, farPath: farPath, outPath: outPath, useInt16: useInt16}
		stats, err := processFile(apm.DefaultConfig(), opts, slog.New(slog.DiscardHandler))
		require.NoError(t, err)
		assert.Equal(t, 21, stats.frames)
		assert.Zero(t, stats.frameErrors)
		assert.InDelta(t, stats.inputLevel.dbfs(), stats.outputLevel.dbfs(), 1.5,
			"a 1 kHz tone passes the high-pass filter")

		out, err := openWAVInput(outPath)
		require.NoError(t, err)
		got := make([]int16, 2*nearFrames+100)
		n, err := out.readInt16(got)
		require.NoError(t, err)
		assert.Equal(t, 2*nearFrames, n, "output keeps the input length")
		require.NoError(t, out.Close())

		var buf bytes.Buffer
		printSummary(&buf, opts, stats, 0)
		assert.Contains(t, buf.String(), "21 frames")
		assert.Contains(t, buf.String(), "ERL")
	}
}

func TestProcessFileEmptyInput(t *testing.T) {
	dir := t.TempDir()
	nearPath := filepath.Join(dir, "near.wav")
	writeTestWAV(t, nearPath, 1, nil)

	opts := processOptions{nearPath: nearPath, outPath: filepath.Join(dir, "out.wav")}
	_, err := processFile(apm.DefaultConfig(), opts, slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, errNoFrames)
}
