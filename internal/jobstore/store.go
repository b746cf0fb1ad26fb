package jobstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ambiware-labs/voxweld/internal/config"
	_ "modernc.org/sqlite"
)

// Job records one synthesis request's outcome.
type Job struct {
	ID          string
	Backend     string
	TextChars   int
	TextWords   int
	ChunkCount  int
	Format      string
	AudioMS     int64
	ElapsedMS   int64
	Status      string // ok, failed
	ErrorDetail string
	CreatedAt   time.Time
}

// Store is a SQLite-backed log of synthesis jobs. A disabled store keeps
// a nil handle and every method is a no-op.
type Store struct {
	db    *sql.DB
	cfg   config.JobStoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the job store according to config.
func Open(ctx context.Context, cfg config.JobStoreConfig, log *slog.Logger) (*Store, error) {
	if !cfg.Enabled {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
			log.Warn("job store vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("job store prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    backend TEXT,
    text_chars INTEGER,
    text_words INTEGER,
    chunk_count INTEGER,
    format TEXT,
    audio_ms INTEGER,
    elapsed_ms INTEGER,
    status TEXT,
    error_detail TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append records a finished job.
func (s *Store) Append(ctx context.Context, job Job) error {
	if s.db == nil {
		return nil
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs(id, backend, text_chars, text_words, chunk_count, format, audio_ms, elapsed_ms, status, error_detail, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Backend, job.TextChars, job.TextWords, job.ChunkCount, job.Format,
		job.AudioMS, job.ElapsedMS, job.Status, job.ErrorDetail, job.CreatedAt)
	return err
}

// ListRecent returns the newest jobs first, up to limit.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Job, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, backend, text_chars, text_words, chunk_count, format, audio_ms, elapsed_ms, status, error_detail, created_at
		 FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var created string
		if err := rows.Scan(&j.ID, &j.Backend, &j.TextChars, &j.TextWords, &j.ChunkCount, &j.Format,
			&j.AudioMS, &j.ElapsedMS, &j.Status, &j.ErrorDetail, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			j.CreatedAt = ts
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Prune applies retention by age and by row count.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
	}
	if s.cfg.MaxJobs > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE id IN (
			SELECT id FROM jobs ORDER BY created_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxJobs)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}
