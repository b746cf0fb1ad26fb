package audio

import "math"

// normalizeHeadroom keeps the normalized peak below full scale so the
// crossfade sum cannot clip more than marginally.
const normalizeHeadroom = 0.9

// Normalize scales the waveform in place so its peak amplitude reaches
// 90% of the format's full scale. Digital silence is returned unchanged.
// The operation is a pure gain change; relative sample ratios are
// preserved up to int16 rounding.
func Normalize(w Waveform) Waveform {
	var peak float64
	for _, s := range w.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return w
	}

	gain := normalizeHeadroom * w.Format.FullScale() / peak
	if w.Format == FormatInt16 {
		for i, s := range w.Samples {
			w.Samples[i] = float64(clipInt16(s * gain))
		}
		return w
	}
	for i, s := range w.Samples {
		w.Samples[i] = s * gain
	}
	return w
}
