package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/ambiware-labs/voxweld/internal/audio"
	"github.com/ambiware-labs/voxweld/internal/config"
	"github.com/ambiware-labs/voxweld/internal/jobstore"
	"github.com/ambiware-labs/voxweld/internal/protocol"
	"github.com/ambiware-labs/voxweld/internal/render"
	"github.com/ambiware-labs/voxweld/internal/segment"
	"github.com/ambiware-labs/voxweld/internal/stitch"
)

// Encoder turns a waveform into an encoded audio payload.
type Encoder interface {
	Encode(ctx context.Context, w audio.Waveform, format string) ([]byte, error)
}

// Request is a single synthesis job.
type Request struct {
	SessionID string
	Text      string
	Voice     string
	Format    string
}

// Result is the encoded output of a completed job.
type Result struct {
	Audio      []byte
	Format     string
	MediaType  string
	Duration   time.Duration
	ChunkCount int
}

// Service runs the synthesis pipeline: segment the text, render each
// chunk against the backend, stitch, and encode.
type Service struct {
	cfg       config.Config
	profile   config.BackendProfile
	renderer  render.Renderer
	resampler stitch.Resampler
	encoder   Encoder
	jobs      *jobstore.Store
	logger    *slog.Logger

	requests  metric.Int64Counter
	chunkHist metric.Int64Histogram
	elapsed   metric.Float64Histogram
}

func NewService(cfg config.Config, renderer render.Renderer, rs stitch.Resampler, enc Encoder, jobs *jobstore.Store, log *slog.Logger) (*Service, error) {
	s := &Service{
		cfg:       cfg,
		profile:   cfg.Backend.Profile,
		renderer:  renderer,
		resampler: rs,
		encoder:   enc,
		jobs:      jobs,
		logger:    log.With(slog.String("component", "speech-service")),
	}
	if err := s.initMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) initMetrics() error {
	meter := otel.Meter("github.com/ambiware-labs/voxweld/speech")
	requests, err := meter.Int64Counter("voxweld.speech.requests", metric.WithDescription("Synthesis requests by status"))
	if err != nil {
		return err
	}
	chunkHist, err := meter.Int64Histogram("voxweld.speech.chunks", metric.WithDescription("Chunks per synthesis request"))
	if err != nil {
		return err
	}
	elapsed, err := meter.Float64Histogram("voxweld.speech.duration_seconds", metric.WithDescription("Wall-clock synthesis duration"))
	if err != nil {
		return err
	}
	s.requests = requests
	s.chunkHist = chunkHist
	s.elapsed = elapsed
	return nil
}

// Synthesize runs the full pipeline for one request and records the job.
func (s *Service) Synthesize(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, chunkCount, err := s.run(ctx, req)
	took := time.Since(start)

	status := "ok"
	detail := ""
	if err != nil {
		status = "failed"
		detail = err.Error()
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	s.chunkHist.Record(ctx, int64(chunkCount))
	s.elapsed.Record(ctx, took.Seconds())

	if s.jobs != nil {
		job := jobstore.Job{
			ID:          uuid.NewString(),
			Backend:     s.cfg.Backend.Name,
			TextChars:   len(req.Text),
			TextWords:   segment.WordCount(req.Text),
			ChunkCount:  chunkCount,
			Format:      res.Format,
			AudioMS:     res.Duration.Milliseconds(),
			ElapsedMS:   took.Milliseconds(),
			Status:      status,
			ErrorDetail: detail,
		}
		if jerr := s.jobs.Append(ctx, job); jerr != nil {
			s.logger.Warn("failed to record job", slog.String("error", jerr.Error()))
		}
	}

	if err != nil {
		s.logger.Warn("synthesis failed",
			slog.String("session_id", req.SessionID),
			slog.String("error", err.Error()))
		return Result{}, err
	}
	s.logger.Info("synthesis complete",
		slog.String("session_id", req.SessionID),
		slog.Int("chunks", chunkCount),
		slog.String("format", res.Format),
		slog.Duration("audio", res.Duration),
		slog.Duration("took", took))
	return res, nil
}

func (s *Service) run(ctx context.Context, req Request) (Result, int, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, 0, ErrEmptyInput
	}
	format := req.Format
	if format == "" {
		format = s.cfg.Synthesis.DefaultFormat
	}
	if !protocol.ValidFormat(format) {
		return Result{}, 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	voice := req.Voice
	if voice == "" {
		voice = s.cfg.Backend.Voice
	}

	chunks := segment.Split(req.Text, s.profile)
	if len(chunks) == 0 {
		return Result{}, 0, ErrEmptyInput
	}

	waves, err := s.renderChunks(ctx, chunks, voice)
	if err != nil {
		return Result{}, len(chunks), err
	}

	wave, err := stitch.Stitch(ctx, waves, s.profile.CrossfadeMS, s.resampler)
	if err != nil {
		return Result{}, len(chunks), err
	}

	payload, err := s.encoder.Encode(ctx, wave, format)
	if err != nil {
		return Result{}, len(chunks), err
	}

	return Result{
		Audio:      payload,
		Format:     format,
		MediaType:  protocol.MediaType(format),
		Duration:   wave.Duration(),
		ChunkCount: len(chunks),
	}, len(chunks), nil
}

func (s *Service) renderChunks(ctx context.Context, chunks []segment.Chunk, voice string) ([]audio.Waveform, error) {
	waves := make([]audio.Waveform, len(chunks))
	limit := s.cfg.Synthesis.Concurrency
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	g, ctx := errgroup.WithContext(ctx)
	for _, chunk := range chunks {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}
			w, err := s.renderer.Render(ctx, chunk.Text, voice)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", chunk.Index, err)
			}
			waves[chunk.Index] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return waves, nil
}
