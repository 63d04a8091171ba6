package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	apm "github.com/tphakala/go-audio-apm"
)

const (
	// Interleaved samples per read from the decoder.
	readChunkSamples = 8192

	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	wavFormatPCM = 1
)

var errWrongSampleRate = errors.New("input must be 48 kHz")

// wavInput holds a validated WAV decoder and its format.
type wavInput struct {
	file     *os.File
	decoder  *wav.Decoder
	path     string
	rate     int
	channels int
	bitDepth int
	buf      *audio.IntBuffer
	invMax   float32
}

// openWAVInput opens a WAV file and checks it can feed the bridge.
func openWAVInput(path string) (*wavInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	in := &wavInput{
		file:     f,
		decoder:  decoder,
		path:     path,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: int(decoder.BitDepth),
		invMax:   float32(1 / getMaxValue(int(decoder.BitDepth))),
	}
	if in.rate != apm.SampleRateHz {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is %d Hz", errWrongSampleRate, path, in.rate)
	}
	in.buf = &audio.IntBuffer{Data: make([]int, readChunkSamples), Format: format}
	return in, nil
}

// readInts fills the decoder buffer with up to n samples.
func (w *wavInput) readInts(n int) ([]int, error) {
	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}
	w.buf.Data = w.buf.Data[:n]
	got, err := w.decoder.PCMBuffer(w.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", w.path, err)
	}
	return w.buf.Data[:got], nil
}

// readFloat reads interleaved samples scaled to [-1, 1]. It returns 0 at
// the end of the file.
func (w *wavInput) readFloat(dst []float32) (int, error) {
	data, err := w.readInts(len(dst))
	if err != nil {
		return 0, err
	}
	for i, s := range data {
		dst[i] = float32(s) * w.invMax
	}
	return len(data), nil
}

// readInt16 reads interleaved samples as 16-bit PCM, dropping extra
// precision from deeper files.
func (w *wavInput) readInt16(dst []int16) (int, error) {
	data, err := w.readInts(len(dst))
	if err != nil {
		return 0, err
	}
	shift := max(w.bitDepth-bitsPerSample16, 0)
	for i, s := range data {
		dst[i] = int16(s >> shift)
	}
	return len(data), nil
}

// Close closes the input file.
func (w *wavInput) Close() error {
	return w.file.Close()
}

// wavOutput wraps an encoder writing PCM at 48 kHz.
type wavOutput struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	maxVal  float32
}

// createWAVOutput creates the output file and its encoder.
func createWAVOutput(path string, bitDepth, channels int) (*wavOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &wavOutput{
		file:    f,
		encoder: wav.NewEncoder(f, apm.SampleRateHz, bitDepth, channels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: apm.SampleRateHz},
			SourceBitDepth: bitDepth,
		},
		maxVal: float32(getMaxValue(bitDepth)),
	}, nil
}

func (w *wavOutput) ints(n int) []int {
	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}
	w.buf.Data = w.buf.Data[:n]
	return w.buf.Data
}

// writeFloat writes float samples with clipping.
func (w *wavOutput) writeFloat(samples []float32) error {
	data := w.ints(len(samples))
	for i, s := range samples {
		s = min(max(s, -1), 1)
		data[i] = int(s * w.maxVal)
	}
	return w.encoder.Write(w.buf)
}

// writeInt16 writes 16-bit samples, widening them for deeper outputs.
func (w *wavOutput) writeInt16(samples []int16) error {
	data := w.ints(len(samples))
	shift := max(w.buf.SourceBitDepth-bitsPerSample16, 0)
	for i, s := range samples {
		data[i] = int(s) << shift
	}
	return w.encoder.Write(w.buf)
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutput) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return w.file.Close()
}

// getMaxValue returns the full-scale value for a PCM bit depth.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// frameSource yields whole frames from a WAV input. The final partial frame
// is zero-padded.
type frameSource[T apm.Sample] struct {
	framer *apm.Framer[T]
	chunk  []T
	read   func([]T) (int, error)
	eof    bool
}

func newFrameSource[T apm.Sample](channels int, read func([]T) (int, error)) *frameSource[T] {
	return &frameSource[T]{
		framer: apm.NewFramer[T](channels),
		chunk:  make([]T, readChunkSamples-readChunkSamples%channels),
		read:   read,
	}
}

// next fills dst with one frame and returns how many of its samples came
// from the input. It returns 0 once the input is exhausted.
func (s *frameSource[T]) next(dst []T) (int, error) {
	for !s.framer.Next(dst) {
		if s.eof {
			valid := s.framer.Buffered() * s.framer.Channels()
			if !s.framer.Flush(dst) {
				return 0, nil
			}
			return valid, nil
		}
		n, err := s.read(s.chunk)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			s.eof = true
			continue
		}
		s.framer.Write(s.chunk[:n])
	}
	return s.framer.FrameLen(), nil
}
