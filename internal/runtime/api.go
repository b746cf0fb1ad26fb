package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ambiware-labs/voxweld/internal/render"
	"github.com/ambiware-labs/voxweld/internal/speech"
)

// speechBody is the OpenAI-compatible request for POST /v1/audio/speech.
// Model and speed are accepted for compatibility and ignored.
type speechBody struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

type apiError struct {
	Error string `json:"error"`
}

// voiceLister is implemented by backends that can enumerate voices.
type voiceLister interface {
	Voices(ctx context.Context) ([]byte, error)
}

// healthChecker is implemented by backends with a reachability probe.
type healthChecker interface {
	Healthy(ctx context.Context) bool
}

func (r *Runtime) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/audio/speech", r.handleSpeech)
	mux.HandleFunc("GET /v1/models", r.handleModels)
	mux.HandleFunc("GET /v1/voices", r.handleVoices)
	mux.HandleFunc("GET /health", r.handleBackendHealth)
	mux.HandleFunc("GET /{$}", r.handleInfo)
}

func (r *Runtime) handleSpeech(w http.ResponseWriter, req *http.Request) {
	var body speechBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), time.Duration(r.cfg.Backend.RequestTimeoutMS)*time.Millisecond)
	defer cancel()

	res, err := r.speech.Synthesize(ctx, speech.Request{
		Text:   body.Input,
		Voice:  body.Voice,
		Format: body.ResponseFormat,
	})
	if err != nil {
		switch {
		case errors.Is(err, speech.ErrEmptyInput), errors.Is(err, speech.ErrUnsupportedFormat):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, render.ErrBackend), errors.Is(err, render.ErrEmptySynthesis):
			writeJSONError(w, http.StatusBadGateway, err.Error())
		default:
			writeJSONError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", res.MediaType)
	w.Header().Set("X-Audio-Duration-Ms", fmt.Sprintf("%d", res.Duration.Milliseconds()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Audio); err != nil {
		r.logger.Warn("failed to write audio response", slog.String("error", err.Error()))
	}
}

func (r *Runtime) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "tts-1", "object": "model", "owned_by": r.cfg.Backend.Name},
			{"id": "tts-1-hd", "object": "model", "owned_by": r.cfg.Backend.Name},
		},
	})
}

func (r *Runtime) handleVoices(w http.ResponseWriter, req *http.Request) {
	if lister, ok := r.renderer.(voiceLister); ok {
		body, err := lister.Voices(req.Context())
		if err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}
		r.logger.Warn("backend voice listing failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"voices": []string{r.cfg.Backend.Voice},
	})
}

func (r *Runtime) handleBackendHealth(w http.ResponseWriter, req *http.Request) {
	backendUp := true
	if checker, ok := r.renderer.(healthChecker); ok {
		backendUp = checker.Healthy(req.Context())
	}
	status := http.StatusOK
	state := "ok"
	if !backendUp {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":  state,
		"backend": r.cfg.Backend.Name,
		"mode":    r.cfg.Backend.Mode,
	})
}

func (r *Runtime) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    r.cfg.RuntimeName,
		"backend": r.cfg.Backend.Name,
		"formats": []string{"mp3", "wav", "opus", "flac", "aac", "pcm"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
