package render

import (
	"context"
	"math"
	"strings"

	"github.com/ambiware-labs/voxweld/internal/audio"
)

// mockMSPerWord paces the generated tone so longer chunks produce longer
// audio, which keeps duration math observable in development.
const mockMSPerWord = 200

// mockRenderer synthesizes a quiet sine tone sized to the input text.
// Useful for development and tests without a live backend.
type mockRenderer struct {
	sampleRate int
	toneHz     float64
}

func NewMockRenderer(sampleRate int) Renderer {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	return &mockRenderer{sampleRate: sampleRate, toneHz: 440}
}

func (m *mockRenderer) Render(ctx context.Context, text, voice string) (audio.Waveform, error) {
	if err := ctx.Err(); err != nil {
		return audio.Waveform{}, err
	}

	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	frames := m.sampleRate * words * mockMSPerWord / 1000
	if frames == 0 {
		frames = 1
	}

	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = 0.5 * 32767 * math.Sin(2*math.Pi*m.toneHz*float64(i)/float64(m.sampleRate))
	}
	return audio.Waveform{
		SampleRate: m.sampleRate,
		Channels:   1,
		Format:     audio.FormatInt16,
		Samples:    samples,
	}, nil
}
