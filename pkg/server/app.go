package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"finbot/internal/domain/repository"
	"finbot/internal/usecase"
	"finbot/pkg/config"
	xhttp "finbot/pkg/http"
	applogger "finbot/pkg/logger"
)

// SessionCloser shuts down client-facing sessions during graceful stop.
type SessionCloser interface {
	CloseAll()
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	bus         repository.TickBus
	snapshots   repository.SnapshotRepository
	collector   *usecase.TickCollector
	engine      *usecase.AnalysisEngine
	broadcaster *usecase.Broadcaster
	sessions    SessionCloser
	handlers    []xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	bus repository.TickBus,
	snapshots repository.SnapshotRepository,
	collector *usecase.TickCollector,
	engine *usecase.AnalysisEngine,
	broadcaster *usecase.Broadcaster,
	sessions SessionCloser,
	handlers []xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		bus:         bus,
		snapshots:   snapshots,
		collector:   collector,
		engine:      engine,
		broadcaster: broadcaster,
		sessions:    sessions,
		handlers:    handlers,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handlers,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
		xhttp.WithLogger(a.log),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	// analytics consumes ticks off the bus
	if err := a.bus.Subscribe(a.cfg.Bus.Channel, a.engine.HandleTick); err != nil {
		a.log.Error("bus subscribe error", applogger.Error(err))
		return err
	}
	a.engine.Start(ctx)
	a.log.Info("analysis engine started",
		applogger.Strings("symbols", a.cfg.Analytics.Symbols),
		applogger.Duration("interval_ms", a.cfg.Analytics.SnapshotInterval),
	)

	a.broadcaster.Start(ctx)
	a.log.Info("broadcaster started",
		applogger.Strings("symbols", a.cfg.Broadcast.Symbols),
		applogger.Duration("interval_ms", a.cfg.Broadcast.Interval),
	)

	// ingest starts last so everything downstream is ready for ticks
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.log.Error("collector error", applogger.Error(err))
		}
	}()
	a.log.Info("collector started", applogger.Strings("symbols", a.cfg.Binance.Symbols))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services, ingest first so nothing new
// enters the pipeline while it drains.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Shutdown(ctx); err != nil {
		a.log.Warn("collector stop error", applogger.Error(err))
	}

	a.engine.Stop()
	a.broadcaster.Stop()

	// close WebSocket sessions before the HTTP listener so clients see
	// a close frame
	if a.sessions != nil {
		a.sessions.CloseAll()
	}

	if err := a.bus.Close(); err != nil {
		a.log.Warn("bus close error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.snapshots.Close(); err != nil {
		a.log.Warn("snapshot store close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
