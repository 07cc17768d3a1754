package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/hamed0406/metaprobe/internal/config"
	"github.com/hamed0406/metaprobe/internal/httpapi"
	apimw "github.com/hamed0406/metaprobe/internal/httpapi/middleware"
	"github.com/hamed0406/metaprobe/internal/logging"
	"github.com/hamed0406/metaprobe/internal/notify"
	"github.com/hamed0406/metaprobe/internal/probe"
	"github.com/hamed0406/metaprobe/internal/repo"
	"github.com/hamed0406/metaprobe/internal/repo/memory"
	"github.com/hamed0406/metaprobe/internal/repo/postgres"
	"github.com/hamed0406/metaprobe/internal/scheduler"
	"github.com/hamed0406/metaprobe/internal/sink"
	"github.com/hamed0406/metaprobe/internal/sink/kafka"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	fs := config.Flags("metaprobe-api")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.Verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		runs   repo.RunStore
		alerts repo.AlertStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("db_connect", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("db_schema", zap.Error(err))
		}
		runs, alerts = pg, pg.Alerts()
		logger.Info("store", zap.String("kind", "postgres"))
	} else {
		mem := memory.New()
		runs, alerts = mem, mem.Alerts()
		logger.Info("store", zap.String("kind", "memory"))
	}

	prober, err := probe.NewMetadataProber(cfg.EndpointBase, cfg.HTTPTimeout)
	if err != nil {
		logger.Fatal("endpoint", zap.Error(err))
	}
	var p probe.Prober = prober
	if cfg.RetryAttempts > 1 {
		p = &probe.RetryProber{Inner: prober, Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}
	}
	runner := probe.NewRunner(logger, p, nil, probe.RunnerConfig{
		Endpoint:      prober.Endpoint,
		Delay:         cfg.ProbeDelay,
		TrailingDelay: cfg.TrailingDelay,
	})

	sinks := sink.Multi{sink.Store{Runs: runs}}
	if cfg.ReportPath != "" {
		sinks = append(sinks, sink.JSONFile{Path: cfg.ReportPath})
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = producer.Close() }()
		sinks = append(sinks, producer)
		logger.Info("kafka_enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", producer.Topic()))
	}

	repeater := scheduler.NewRepeater(logger, runner.Run, sinks, cfg.Targets, cfg.RunInterval)

	api := httpapi.NewServer(logger, runs, repeater, prober.Endpoint)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg conc.WaitGroup
	wg.Go(func() { repeater.Loop(ctx) })

	if cfg.SlackWebhook != "" {
		alerter := scheduler.NewAlerter(runs, alerts, notify.Multi{notify.NewSlack(cfg.SlackWebhook)}, scheduler.AlerterConfig{
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
			PollInterval:    cfg.AlertPoll,
		})
		wg.Go(func() {
			if err := alerter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("alerter_stopped", zap.Error(err))
			}
		})
	} else {
		logger.Info("alerter_disabled")
	}

	wg.Go(func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_listen_error", zap.Error(err))
			stop()
		}
	})

	<-ctx.Done()
	logger.Info("shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_error", zap.Error(err))
	}
	wg.Wait()
}
