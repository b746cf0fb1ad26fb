package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleFormat identifies the PCM encoding of a waveform's samples.
type SampleFormat int

const (
	// FormatInt16 is 16-bit signed integer PCM; full scale is 32767.
	FormatInt16 SampleFormat = iota
	// FormatFloat32 is 32-bit IEEE float PCM; full scale is 1.0.
	FormatFloat32
)

func (f SampleFormat) String() string {
	switch f {
	case FormatInt16:
		return "int16"
	case FormatFloat32:
		return "float32"
	default:
		return "unknown"
	}
}

// FullScale returns the maximum representable amplitude for the format.
func (f SampleFormat) FullScale() float64 {
	if f == FormatFloat32 {
		return 1.0
	}
	return 32767
}

// wavFormatPCM and wavFormatIEEEFloat are WAV fmt-chunk audio format codes.
const (
	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
)

// Waveform is a decoded PCM signal. Samples are interleaved by frame and
// carry the native amplitude range of Format (±32767 for int16, ±1.0 for
// float32). Each pipeline stage consumes its input and produces a new
// waveform; only Normalize scales the sample buffer in place.
type Waveform struct {
	SampleRate int
	Channels   int
	Format     SampleFormat
	Samples    []float64
}

// Frames returns the number of sample frames (samples per channel).
func (w Waveform) Frames() int {
	if w.Channels <= 0 {
		return len(w.Samples)
	}
	return len(w.Samples) / w.Channels
}

// Duration returns the playing time of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(w.Frames()) / float64(w.SampleRate) * float64(time.Second))
}

var (
	ErrInvalidWAV       = errors.New("invalid wav data")
	ErrUnsupportedDepth = errors.New("unsupported wav bit depth")
)

// DecodeWAV parses a single-stream PCM WAV file into a Waveform.
// 16-bit integer and 32-bit IEEE float payloads are supported; everything
// else the backend could emit is outside the gateway's contract.
func DecodeWAV(data []byte) (Waveform, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Waveform{}, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if buf.Format == nil || len(buf.Data) == 0 {
		return Waveform{}, fmt.Errorf("%w: empty pcm payload", ErrInvalidWAV)
	}

	w := Waveform{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Samples:    make([]float64, len(buf.Data)),
	}

	switch {
	case dec.WavAudioFormat == wavFormatIEEEFloat && dec.BitDepth == 32:
		w.Format = FormatFloat32
		// The decoder reads 32-bit words as int32 regardless of the fmt
		// code; reinterpret the bits as IEEE floats.
		for i, s := range buf.Data {
			w.Samples[i] = float64(math.Float32frombits(uint32(int32(s))))
		}
	case dec.WavAudioFormat == wavFormatPCM && dec.BitDepth == 16:
		w.Format = FormatInt16
		for i, s := range buf.Data {
			w.Samples[i] = float64(s)
		}
	default:
		return Waveform{}, fmt.Errorf("%w: format %d at %d bits", ErrUnsupportedDepth, dec.WavAudioFormat, dec.BitDepth)
	}
	return w, nil
}

// EncodeWAV serializes a Waveform to an in-memory WAV file.
func EncodeWAV(w Waveform) ([]byte, error) {
	if w.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidWAV, w.SampleRate)
	}
	channels := w.Channels
	if channels <= 0 {
		channels = 1
	}

	bitDepth := 16
	wavFormat := wavFormatPCM
	if w.Format == FormatFloat32 {
		bitDepth = 32
		wavFormat = wavFormatIEEEFloat
	}

	var buf writeSeekerBuffer
	enc := wav.NewEncoder(&buf, w.SampleRate, bitDepth, channels, wavFormat)

	data := make([]int, len(w.Samples))
	if w.Format == FormatFloat32 {
		for i, s := range w.Samples {
			data[i] = int(int32(math.Float32bits(float32(s))))
		}
	} else {
		for i, s := range w.Samples {
			data[i] = clipInt16(s)
		}
	}

	ibuf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: w.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(ibuf); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func clipInt16(s float64) int {
	v := math.Round(s)
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int(v)
}

// writeSeekerBuffer is an in-memory io.WriteSeeker; the wav encoder seeks
// back to patch chunk sizes on Close.
type writeSeekerBuffer struct {
	b []byte
	i int64
}

func (b *writeSeekerBuffer) Bytes() []byte { return b.b }

func (b *writeSeekerBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	end := b.i + int64(len(p))
	if n := end - int64(len(b.b)); n > 0 {
		b.b = slices.Grow(b.b, int(n))
	}
	if end > int64(len(b.b)) {
		b.b = b.b[:end]
	}
	copy(b.b[b.i:end], p)
	b.i = end
	return len(p), nil
}

func (b *writeSeekerBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = b.i + offset
	case io.SeekEnd:
		next = int64(len(b.b)) + offset
	default:
		return 0, errors.New("writeSeekerBuffer: invalid whence")
	}
	if next < 0 {
		return 0, errors.New("writeSeekerBuffer: negative position")
	}
	b.i = next
	return next, nil
}
