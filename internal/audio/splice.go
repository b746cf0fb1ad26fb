package audio

import "math"

// Splice joins two waveforms with a linear crossfade over crossfadeMS
// milliseconds. Both inputs must share sample rate, channel count, and
// format; reconciling those is the caller's job, not the splicer's.
//
// The fade window is min(round(ms/1000·rate), frames(acc), frames(next))
// frames. A window of zero (or waveforms shorter than one window) degrades
// to plain concatenation. Otherwise the tail of acc and the head of next
// share the window: out = pre ++ cross ++ post, so the result is exactly
// one fade window shorter than the two inputs appended.
//
// The fade is equal-slope, not equal-power: chunks come from one synthesis
// voice at matched loudness after normalization, where a linear blend is
// free of level steps and far simpler.
func Splice(acc, next Waveform, crossfadeMS int) Waveform {
	channels := acc.Channels
	if channels <= 0 {
		channels = 1
	}

	fadeFrames := int(math.Round(float64(crossfadeMS) / 1000.0 * float64(acc.SampleRate)))
	if f := acc.Frames(); fadeFrames > f {
		fadeFrames = f
	}
	if f := next.Frames(); fadeFrames > f {
		fadeFrames = f
	}

	if fadeFrames <= 0 {
		out := make([]float64, 0, len(acc.Samples)+len(next.Samples))
		out = append(out, acc.Samples...)
		out = append(out, next.Samples...)
		return Waveform{SampleRate: acc.SampleRate, Channels: acc.Channels, Format: acc.Format, Samples: out}
	}

	fadeSamples := fadeFrames * channels
	pre := acc.Samples[:len(acc.Samples)-fadeSamples]
	tail := acc.Samples[len(acc.Samples)-fadeSamples:]
	head := next.Samples[:fadeSamples]
	post := next.Samples[fadeSamples:]

	out := make([]float64, 0, len(pre)+fadeSamples+len(post))
	out = append(out, pre...)
	for k := 0; k < fadeSamples; k++ {
		gain := float64(k/channels) / float64(fadeFrames)
		blended := tail[k]*(1-gain) + head[k]*gain
		if acc.Format == FormatInt16 {
			// Two near-peak signals can sum past full scale.
			blended = float64(clipInt16(blended))
		}
		out = append(out, blended)
	}
	out = append(out, post...)

	return Waveform{SampleRate: acc.SampleRate, Channels: acc.Channels, Format: acc.Format, Samples: out}
}
