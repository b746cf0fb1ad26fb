package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/ambiware-labs/voxweld/internal/audio"
	"github.com/ambiware-labs/voxweld/internal/config"
)

// Renderer turns one text chunk into one PCM waveform. Implementations
// call the synthesis backend once per chunk; chunks are independent, so
// calls may run concurrently.
type Renderer interface {
	Render(ctx context.Context, text, voice string) (audio.Waveform, error)
}

var (
	// ErrBackend means the synthesis backend call failed.
	ErrBackend = errors.New("tts backend request failed")

	// ErrEmptySynthesis means the backend answered with no audio; an
	// empty chunk cannot be stitched.
	ErrEmptySynthesis = errors.New("backend returned empty audio")
)

// New builds a Renderer for the configured backend mode.
func New(cfg config.BackendConfig) (Renderer, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockRenderer(cfg.SampleRate), nil
	case "http":
		return NewHTTPRenderer(cfg), nil
	case "exec":
		return NewExecRenderer(cfg.Command)
	default:
		return nil, fmt.Errorf("unknown backend mode %q", cfg.Mode)
	}
}
