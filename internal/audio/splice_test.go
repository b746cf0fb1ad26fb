package audio

import (
	"math"
	"testing"
)

func constantWave(frames int, rate int, value float64) Waveform {
	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = value
	}
	return Waveform{SampleRate: rate, Channels: 1, Format: FormatInt16, Samples: samples}
}

func TestSpliceDurationLaw(t *testing.T) {
	// 1s + 0.5s at 1kHz with a 100ms fade loses exactly one fade window.
	a := constantWave(1000, 1000, 1000)
	b := constantWave(500, 1000, 1000)
	out := Splice(a, b, 100)
	if got, want := len(out.Samples), 1000+500-100; got != want {
		t.Fatalf("expected %d samples, got %d", want, got)
	}
}

func TestSpliceZeroCrossfadeConcatenates(t *testing.T) {
	a := constantWave(300, 1000, 500)
	b := constantWave(200, 1000, -500)
	out := Splice(a, b, 0)
	if len(out.Samples) != 500 {
		t.Fatalf("expected plain concatenation, got %d samples", len(out.Samples))
	}
	if out.Samples[299] != 500 || out.Samples[300] != -500 {
		t.Fatalf("expected untouched samples at the seam")
	}
}

func TestSpliceShortInputFallsBackToConcat(t *testing.T) {
	// The fade window shrinks to the shorter input.
	a := constantWave(1000, 1000, 100)
	b := constantWave(50, 1000, 100)
	out := Splice(a, b, 100)
	if got, want := len(out.Samples), 1000+50-50; got != want {
		t.Fatalf("expected window clamped to 50 frames, got %d samples (want %d)", got, want)
	}
}

func TestSpliceMidpointIsMean(t *testing.T) {
	a := constantWave(1000, 1000, 2000)
	b := constantWave(1000, 1000, 4000)
	fadeFrames := 100
	out := Splice(a, b, 100)

	crossStart := 1000 - fadeFrames
	mid := out.Samples[crossStart+fadeFrames/2]
	if math.Abs(mid-3000) > 1 {
		t.Fatalf("expected midpoint near 3000, got %v", mid)
	}
	// Fade entry is still the accumulator's level, fade end approaches next's.
	if math.Abs(out.Samples[crossStart]-2000) > 1 {
		t.Fatalf("expected fade entry at 2000, got %v", out.Samples[crossStart])
	}
	if math.Abs(out.Samples[crossStart+fadeFrames-1]-4000) > 40 {
		t.Fatalf("expected fade exit near 4000, got %v", out.Samples[crossStart+fadeFrames-1])
	}
}

func TestSpliceClipsInt16(t *testing.T) {
	a := constantWave(200, 1000, 30000)
	b := constantWave(200, 1000, 30000)
	out := Splice(a, b, 100)
	for i, s := range out.Samples {
		if s > 32767 || s < -32768 {
			t.Fatalf("sample %d out of range: %v", i, s)
		}
	}
}

func TestSpliceStereoAlignment(t *testing.T) {
	frames := 100
	mk := func(left, right float64) Waveform {
		samples := make([]float64, frames*2)
		for i := 0; i < frames; i++ {
			samples[i*2] = left
			samples[i*2+1] = right
		}
		return Waveform{SampleRate: 1000, Channels: 2, Format: FormatInt16, Samples: samples}
	}
	out := Splice(mk(1000, -1000), mk(2000, -2000), 50)
	if got, want := len(out.Samples), (100+100-50)*2; got != want {
		t.Fatalf("expected %d samples, got %d", want, got)
	}
	// Channels keep their own polarity through the blend.
	for i := 0; i < len(out.Samples); i += 2 {
		if out.Samples[i] <= 0 || out.Samples[i+1] >= 0 {
			t.Fatalf("channel bleed at frame %d: %v, %v", i/2, out.Samples[i], out.Samples[i+1])
		}
	}
}
