package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ambiware-labs/voxweld/internal/audio"
	"github.com/ambiware-labs/voxweld/internal/config"
)

// httpRenderer speaks the OpenAI-compatible speech endpoint most local
// TTS backends expose. It always requests wav so the stitcher receives
// uncompressed PCM.
type httpRenderer struct {
	baseURL string
	client  *http.Client
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

func NewHTTPRenderer(cfg config.BackendConfig) Renderer {
	return &httpRenderer{
		baseURL: cfg.URL,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutMS) * time.Millisecond,
		},
	}
}

func (r *httpRenderer) Render(ctx context.Context, text, voice string) (audio.Waveform, error) {
	payload := speechRequest{
		Model:          "tts-1",
		Input:          text,
		Voice:          voice,
		ResponseFormat: "wav",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return audio.Waveform{}, fmt.Errorf("%w: backend returned status %s", ErrBackend, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: read response: %v", ErrBackend, err)
	}

	w, err := audio.DecodeWAV(data)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if len(w.Samples) == 0 {
		return audio.Waveform{}, ErrEmptySynthesis
	}
	return w, nil
}

// Voices proxies the backend's voice listing, best effort; gateways
// without a voice endpoint simply return an error the caller can ignore.
func (r *httpRenderer) Voices(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v1/audio/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: backend returned status %s", ErrBackend, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Healthy probes the backend's health endpoint.
func (r *httpRenderer) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
