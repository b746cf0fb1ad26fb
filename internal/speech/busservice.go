package speech

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ambiware-labs/voxweld/internal/bus"
	"github.com/ambiware-labs/voxweld/internal/config"
	"github.com/ambiware-labs/voxweld/internal/protocol"
)

// BusService exposes the pipeline over NATS. Requests arrive on
// speech.request and results are published to speech.result or
// speech.failed.
type BusService struct {
	cfg     config.BusConfig
	bus     *bus.Client
	speech  *Service
	timeout time.Duration
	sub     *nats.Subscription
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *slog.Logger
}

func NewBusService(parent context.Context, cfg config.BusConfig, busClient *bus.Client, svc *Service, timeout time.Duration, log *slog.Logger) *BusService {
	ctx, cancel := context.WithCancel(parent)
	return &BusService{
		cfg:     cfg,
		bus:     busClient,
		speech:  svc,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		logger:  log.With(slog.String("component", "speech-bus")),
	}
}

func (s *BusService) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSpeechRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *BusService) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *BusService) Healthy() bool { return !s.cfg.Enabled || s.sub != nil }

func (s *BusService) handleRequest(msg *nats.Msg) {
	var req protocol.SpeechRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode speech request", slog.String("error", err.Error()))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		res, err := s.speech.Synthesize(ctx, Request{
			SessionID: req.SessionID,
			Text:      req.Text,
			Voice:     req.Voice,
			Format:    req.Format,
		})
		if err != nil {
			failure := protocol.SpeechFailure{
				SessionID: req.SessionID,
				Error:     err.Error(),
				Timestamp: time.Now().UTC(),
			}
			if perr := s.bus.PublishJSON(protocol.SubjectSpeechFailed, failure); perr != nil {
				s.logger.Warn("failed to publish failure", slog.String("error", perr.Error()))
			}
			return
		}

		result := protocol.SpeechResult{
			SessionID:  req.SessionID,
			Format:     res.Format,
			MediaType:  res.MediaType,
			Audio:      res.Audio,
			DurationMS: res.Duration.Milliseconds(),
			ChunkCount: res.ChunkCount,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.bus.PublishJSON(protocol.SubjectSpeechResult, result); err != nil {
			s.logger.Warn("failed to publish result", slog.String("error", err.Error()))
		}
	}()
}
