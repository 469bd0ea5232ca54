package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"PulseTrace/internal/usecase"
	pkgch "PulseTrace/pkg/clickhouse"
	"PulseTrace/pkg/config"
	xhttp "PulseTrace/pkg/http"
	pkgkafka "PulseTrace/pkg/kafka"
	applogger "PulseTrace/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	runner      *usecase.BatchRunner
	collector   *usecase.StreamCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	producer    *pkgkafka.Producer
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies. Collector,
// consumer, producer, and ClickHouse client are optional and may be nil
// depending on configuration.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	runner *usecase.BatchRunner,
	collector *usecase.StreamCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		runner:    runner,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		producer:  producer,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run dispatches on the configured mode and blocks until done.
func (a *App) Run() error {
	switch a.cfg.Mode {
	case config.ModeBatch:
		return a.runBatch()
	case config.ModeServe:
		return a.runServe()
	default:
		return fmt.Errorf("unknown mode %q", a.cfg.Mode)
	}
}

// runBatch processes the configured input path and exits. A path
// pointing at a single CSV file analyzes just that file.
func (a *App) runBatch() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	input := a.cfg.Batch.InputDir
	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("input path: %w", err)
	}

	if !info.IsDir() {
		_, err := a.runner.RunFile(ctx, input)
		return err
	}

	summary, err := a.runner.RunDir(ctx, input)
	a.logger.Info("batch finished",
		applogger.Int("files", summary.Files),
		applogger.Int("accepted", summary.Accepted),
		applogger.Int("rejected", summary.Rejected),
		applogger.Int("failed", summary.Failed),
	)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Files)
	}
	return nil
}

// runServe starts the HTTP API plus the optional Kafka consumer and
// device stream collector, then blocks until interrupted.
func (a *App) runServe() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.logger.Error("stream collector error", applogger.Error(err))
			}
		}()
		a.logger.Info("stream collector started",
			applogger.String("gateway", a.cfg.Stream.GatewayURL),
			applogger.String("device", a.cfg.Stream.DeviceID),
		)
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("serving", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.logger.Warn("stream collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
