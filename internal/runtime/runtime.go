package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ambiware-labs/voxweld/internal/bus"
	"github.com/ambiware-labs/voxweld/internal/config"
	"github.com/ambiware-labs/voxweld/internal/ffmpeg"
	"github.com/ambiware-labs/voxweld/internal/jobstore"
	"github.com/ambiware-labs/voxweld/internal/natsserver"
	"github.com/ambiware-labs/voxweld/internal/render"
	"github.com/ambiware-labs/voxweld/internal/speech"
)

// Runtime owns the gateway's lifecycle: telemetry, the optional embedded
// NATS server and bus services, the job store, and the HTTP API.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	embedded    *natsserver.EmbeddedServer
	busClient   *bus.Client
	busService  *speech.BusService
	jobs        *jobstore.Store
	renderer    render.Renderer
	speech      *speech.Service
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	if err := r.startServices(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	r.registerAPI(mux)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("backend", r.cfg.Backend.Name),
		slog.String("mode", r.cfg.Backend.Mode))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()
	r.stopServices()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) startServices(ctx context.Context) error {
	renderer, err := render.New(r.cfg.Backend)
	if err != nil {
		return fmt.Errorf("failed to build renderer: %w", err)
	}
	r.renderer = renderer

	transcoder, err := ffmpeg.New(r.cfg.FFmpeg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build transcoder: %w", err)
	}

	jobs, err := jobstore.Open(ctx, r.cfg.JobStore, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open job store: %w", err)
	}
	r.jobs = jobs
	if err := jobs.Prune(ctx); err != nil {
		r.logger.Warn("job store prune failed", slog.String("error", err.Error()))
	}

	svc, err := speech.NewService(r.cfg, renderer, transcoder, transcoder, jobs, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build speech service: %w", err)
	}
	r.speech = svc

	if r.cfg.Bus.Enabled {
		if r.cfg.Bus.Embedded {
			embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
			if err != nil {
				return fmt.Errorf("failed to start embedded nats: %w", err)
			}
			r.embedded = embedded
		}
		client, err := bus.Connect(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to bus: %w", err)
		}
		r.busClient = client

		timeout := time.Duration(r.cfg.Backend.RequestTimeoutMS) * time.Millisecond
		r.busService = speech.NewBusService(ctx, r.cfg.Bus, client, svc, timeout, r.logger)
		if err := r.busService.Start(); err != nil {
			return fmt.Errorf("failed to start bus service: %w", err)
		}
	}

	return nil
}

func (r *Runtime) stopServices() {
	if r.busService != nil {
		r.busService.Close()
	}
	if r.busClient != nil {
		r.busClient.Close()
	}
	if r.embedded != nil {
		r.embedded.Shutdown()
	}
	if r.jobs != nil {
		if err := r.jobs.Close(); err != nil {
			r.logger.Error("job store close error", slog.String("error", err.Error()))
		}
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() && (r.busService == nil || r.busService.Healthy()) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
