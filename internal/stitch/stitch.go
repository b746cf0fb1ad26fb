// Package stitch folds independently rendered chunk waveforms into one
// continuous waveform with crossfaded seams.
package stitch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ambiware-labs/voxweld/internal/audio"
)

// ErrNoInput is returned when there are no waveforms to stitch.
var ErrNoInput = errors.New("no waveforms to stitch")

// Resampler converts a waveform to a target rate and channel count. The
// ffmpeg transcoder is the production implementation.
type Resampler interface {
	Resample(ctx context.Context, w audio.Waveform, rate, channels int) (audio.Waveform, error)
}

// Stitch normalizes and splices chunk waveforms in index order.
//
// The first waveform locks the running result's sample rate and channel
// count; every later chunk that disagrees is resampled to match before
// splicing, never the reverse. The fold is strictly left to right: each
// seam depends on the accumulator the previous seam produced, so the
// input order must be the segmenter's emission order.
func Stitch(ctx context.Context, waves []audio.Waveform, crossfadeMS int, rs Resampler) (audio.Waveform, error) {
	if len(waves) == 0 {
		return audio.Waveform{}, ErrNoInput
	}

	acc := audio.Normalize(waves[0])
	if len(waves) == 1 {
		return acc, nil
	}

	rate := acc.SampleRate
	channels := acc.Channels

	for i, next := range waves[1:] {
		if err := ctx.Err(); err != nil {
			return audio.Waveform{}, err
		}

		next = audio.Normalize(next)
		if next.SampleRate != rate || next.Channels != channels {
			if rs == nil {
				return audio.Waveform{}, fmt.Errorf("chunk %d at %dHz/%dch differs from %dHz/%dch and no resampler is available",
					i+1, next.SampleRate, next.Channels, rate, channels)
			}
			resampled, err := rs.Resample(ctx, next, rate, channels)
			if err != nil {
				return audio.Waveform{}, fmt.Errorf("chunk %d: %w", i+1, err)
			}
			next = resampled
		}

		acc = audio.Splice(acc, next, crossfadeMS)
	}

	return acc, nil
}
