package ffmpeg

import "errors"

var (
	// ErrResample means the external resampling transform failed; the
	// caller must abort rather than splice a mis-rated waveform.
	ErrResample = errors.New("ffmpeg resample failed")

	// ErrEncode means the output format conversion failed.
	ErrEncode = errors.New("ffmpeg encode failed")

	// ErrUnsupportedFormat means the requested output format has no codec
	// mapping.
	ErrUnsupportedFormat = errors.New("unsupported output format")
)
