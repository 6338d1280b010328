package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/space-weather-etl/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/space-weather-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/space-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/space-weather-etl/internal/adapter/noaa"
	"github.com/couchcryptid/space-weather-etl/internal/adapter/snapshot"
	"github.com/couchcryptid/space-weather-etl/internal/config"
	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/couchcryptid/space-weather-etl/internal/observability"
	"github.com/couchcryptid/space-weather-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	store, err := snapshot.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}

	writers := snapshot.Tee{store}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, clock, logger)
		writers = append(writers, publisher)
		logger.Info("kafka snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	client := noaa.NewClient(cfg.SourceTimeout, logger)
	sources := []pipeline.Source{
		noaa.NewKpSource(client, cfg.KpURL),
		noaa.NewWindSource(client, cfg.SolarWindURL),
		noaa.NewXraySource(client, cfg.XrayURL),
		noaa.NewFlareSource(client, cfg.FlareURL, cfg.FlareFallbackURL, cfg.SourceTimeout, logger),
		noaa.NewDstSource(client, cfg.DstURL),
		feed.NewNewsSource(client, cfg.NewsFeeds, logger),
	}
	assembler := pipeline.NewAssembler(domain.NewMeteorCalendar(cfg.MeteorSeed))
	p := pipeline.New(sources, assembler, writers, clock, logger, metrics, cfg.SourceTimeout)

	code := 0
	if cfg.Scheduled() {
		serve(ctx, cfg, p, logger)
	} else if _, err := p.Run(ctx); err != nil {
		logger.Error("pipeline run failed", "error", err)
		code = 1
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	logger.Info("shutdown complete")
	stop()
	os.Exit(code)
}

// serve runs the pipeline on the configured schedule alongside the health
// server until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runOnce := func() {
		_, err := p.Run(ctx)
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			logger.Info("pipeline run skipped, previous run still active")
		case err != nil:
			logger.Error("pipeline run failed", "error", err)
		}
	}

	cl := cronLogger{logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(cfg.Schedule, runOnce); err != nil {
		logger.Error("invalid schedule", "schedule", cfg.Schedule, "error", err)
		return
	}
	c.Start()
	logger.Info("pipeline scheduled", "schedule", cfg.Schedule)

	// Publish a first set of snapshots without waiting for the first tick.
	var initial sync.WaitGroup
	initial.Go(runOnce)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	drained := make(chan struct{})
	go func() {
		<-c.Stop().Done()
		initial.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline run still active at shutdown deadline")
	}
}

// cronLogger routes scheduler events through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
