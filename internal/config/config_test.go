package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.Name != "kokoro" {
		t.Fatalf("expected default backend kokoro, got %q", cfg.Backend.Name)
	}
	if cfg.Backend.Profile.MaxWords != 200 || cfg.Backend.Profile.MaxChars != 1200 {
		t.Fatalf("expected kokoro profile, got %+v", cfg.Backend.Profile)
	}
	if cfg.Backend.Profile.CrossfadeMS != 30 {
		t.Fatalf("expected 30ms crossfade, got %d", cfg.Backend.Profile.CrossfadeMS)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOXWELD_BACKEND", "vibevoice")
	t.Setenv("VOXWELD_BACKEND_URL", "http://tts:9000")
	t.Setenv("VOXWELD_BACKEND_VOICE", "narrator")
	t.Setenv("VOXWELD_BACKEND_CROSSFADE_MS", "75")
	t.Setenv("VOXWELD_SYNTHESIS_MAX_CONCURRENCY", "8")
	t.Setenv("VOXWELD_FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("VOXWELD_JOB_STORE_ENABLED", "true")
	t.Setenv("VOXWELD_JOB_STORE_PATH", "./tmp.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Backend.Name != "vibevoice" {
		t.Fatalf("expected backend override, got %q", cfg.Backend.Name)
	}
	if cfg.Backend.Profile.MaxWords != 100 || cfg.Backend.Profile.MaxChars != 500 {
		t.Fatalf("expected vibevoice profile, got %+v", cfg.Backend.Profile)
	}
	if cfg.Backend.Profile.CrossfadeMS != 75 {
		t.Fatalf("expected crossfade override 75, got %d", cfg.Backend.Profile.CrossfadeMS)
	}
	if cfg.Backend.URL != "http://tts:9000" {
		t.Fatalf("expected url override, got %q", cfg.Backend.URL)
	}
	if cfg.Backend.Voice != "narrator" {
		t.Fatalf("expected voice override")
	}
	if cfg.Synthesis.Concurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.Synthesis.Concurrency)
	}
	if cfg.FFmpeg.Path != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected ffmpeg path override")
	}
	if !cfg.JobStore.Enabled || cfg.JobStore.Path != "./tmp.db" {
		t.Fatalf("expected job store overrides, got %+v", cfg.JobStore)
	}
}

func TestLoadFileSwitchesProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxweld.yaml")
	data := []byte("backend:\n  name: voxcpm\n  profile:\n    crossfade_ms: 40\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.Profile.MaxWords != 150 || cfg.Backend.Profile.MaxChars != 800 {
		t.Fatalf("expected voxcpm limits, got %+v", cfg.Backend.Profile)
	}
	if cfg.Backend.Profile.CrossfadeMS != 40 {
		t.Fatalf("expected explicit crossfade to win, got %d", cfg.Backend.Profile.CrossfadeMS)
	}
}

func TestValidateRejectsBadProfile(t *testing.T) {
	t.Setenv("VOXWELD_BACKEND_MAX_WORDS", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for max_words=0")
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	t.Setenv("VOXWELD_BACKEND_MODE", "grpc")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for unknown backend mode")
	}
}
