package jobstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ambiware-labs/voxweld/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenDisabled(t *testing.T) {
	s, err := Open(context.Background(), config.JobStoreConfig{Enabled: false}, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Append(context.Background(), Job{ID: "noop"}); err != nil {
		t.Fatalf("disabled store append should be a no-op: %v", err)
	}
	jobs, err := s.ListRecent(context.Background(), 10)
	if err != nil || jobs != nil {
		t.Fatalf("disabled store should list nothing, got %v err %v", jobs, err)
	}
}

func TestAppendAndList(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JobStoreConfig{Enabled: true, Path: filepath.Join(tmp, "jobs.db")}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	job := Job{
		ID:         "job-123",
		Backend:    "kokoro",
		TextChars:  5400,
		TextWords:  1200,
		ChunkCount: 6,
		Format:     "mp3",
		AudioMS:    17850,
		ElapsedMS:  2300,
		Status:     "ok",
	}
	if err := s.Append(context.Background(), job); err != nil {
		t.Fatalf("append job: %v", err)
	}

	jobs, err := s.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].ID != "job-123" || jobs[0].ChunkCount != 6 || jobs[0].Status != "ok" {
		t.Fatalf("unexpected job: %+v", jobs[0])
	}
}

func TestPruneByDaysAndCount(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JobStoreConfig{Enabled: true, Path: filepath.Join(tmp, "jobs.db"), RetentionDays: 1, MaxJobs: 1}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	s.clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := s.Append(context.Background(), Job{ID: "old-job", Status: "ok"}); err != nil {
		t.Fatalf("append old job: %v", err)
	}

	s.clock = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := s.Append(context.Background(), Job{ID: "new-job", Status: "ok"}); err != nil {
		t.Fatalf("append new job: %v", err)
	}
	if err := s.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	jobs, err := s.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "new-job" {
		t.Fatalf("expected only new-job to survive, got %+v", jobs)
	}
}
