package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ambiware-labs/voxweld/internal/audio"
	"github.com/ambiware-labs/voxweld/internal/config"
)

func testWAV(t *testing.T, rate, frames int) []byte {
	t.Helper()
	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = float64((i%100)*10 - 500)
	}
	data, err := audio.EncodeWAV(audio.Waveform{SampleRate: rate, Channels: 1, Format: audio.FormatInt16, Samples: samples})
	if err != nil {
		t.Fatalf("encode test wav: %v", err)
	}
	return data
}

func TestHTTPRendererRequestsWav(t *testing.T) {
	var got speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(testWAV(t, 24000, 2400))
	}))
	defer srv.Close()

	r := NewHTTPRenderer(config.BackendConfig{URL: srv.URL, RequestTimeoutMS: 5000})
	w, err := r.Render(context.Background(), "Hello world.", "af_bella")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ResponseFormat != "wav" {
		t.Fatalf("expected wav requested from backend, got %q", got.ResponseFormat)
	}
	if got.Input != "Hello world." || got.Voice != "af_bella" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if w.SampleRate != 24000 || w.Frames() != 2400 {
		t.Fatalf("unexpected waveform: rate=%d frames=%d", w.SampleRate, w.Frames())
	}
}

func TestHTTPRendererBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewHTTPRenderer(config.BackendConfig{URL: srv.URL, RequestTimeoutMS: 5000})
	if _, err := r.Render(context.Background(), "text", "voice"); !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestHTTPRendererRejectsGarbageAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not audio"))
	}))
	defer srv.Close()

	r := NewHTTPRenderer(config.BackendConfig{URL: srv.URL, RequestTimeoutMS: 5000})
	if _, err := r.Render(context.Background(), "text", "voice"); !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestMockRendererScalesWithText(t *testing.T) {
	r := NewMockRenderer(24000)
	short, err := r.Render(context.Background(), "one two", "any")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	long, err := r.Render(context.Background(), "one two three four five six", "any")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if long.Frames() <= short.Frames() {
		t.Fatalf("expected longer text to render more frames: %d vs %d", long.Frames(), short.Frames())
	}
}
