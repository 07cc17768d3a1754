// Command metaprobe runs the metadata-extraction probe list once and
// prints a human report.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hamed0406/metaprobe/internal/config"
	"github.com/hamed0406/metaprobe/internal/console"
	"github.com/hamed0406/metaprobe/internal/domain"
	"github.com/hamed0406/metaprobe/internal/logging"
	"github.com/hamed0406/metaprobe/internal/probe"
	"github.com/hamed0406/metaprobe/internal/sink"
	"github.com/hamed0406/metaprobe/internal/sink/kafka"
)

const program = "metaprobe"

var publishTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit code: 0 after any completed run, 1 when
// the service is unhealthy, 2 for usage or config errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	_ = godotenv.Load()

	fs := config.Flags(program)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 2
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.Verbose)
	if err != nil {
		fmt.Fprintln(stderr, "logger:", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.AutoRun {
		console.Instructions(stdout, program)
		return 0
	}

	prober, err := probe.NewMetadataProber(cfg.EndpointBase, cfg.HTTPTimeout)
	if err != nil {
		fmt.Fprintln(stderr, "endpoint:", err)
		return 2
	}

	if cfg.Precheck {
		res := probe.NewHealthChecker(cfg.HTTPTimeout).Check(ctx, prober.Endpoint)
		logger.Info("precheck",
			zap.String("endpoint", prober.Endpoint),
			zap.Bool("success", res.Success),
			zap.Int("status", res.StatusCode),
			zap.String("message", res.Message),
		)
		if !res.Success {
			fmt.Fprintf(stderr, "❌ Metadata service at %s is not healthy: %s\n", prober.Endpoint, res.Message)
			fmt.Fprintln(stderr, "   Start the backend first, or pass --no-precheck to probe anyway.")
			return 1
		}
	}

	var p probe.Prober = prober
	if cfg.RetryAttempts > 1 {
		p = &probe.RetryProber{Inner: prober, Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}
	}

	reporter := console.New(stdout, console.Options{NoColor: cfg.NoColor, Verbose: cfg.Verbose})
	runner := probe.NewRunner(logger, p, reporter, probe.RunnerConfig{
		Endpoint:      prober.Endpoint,
		Delay:         cfg.ProbeDelay,
		TrailingDelay: cfg.TrailingDelay,
	})
	result := runner.Run(ctx, cfg.Targets)

	var sinks sink.Multi
	if cfg.ReportPath != "" {
		sinks = append(sinks, sink.JSONFile{Path: cfg.ReportPath})
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = producer.Close() }()
		sinks = append(sinks, producer)
	}
	if err := publish(ctx, sinks, &result); err != nil {
		logger.Warn("publish_error", zap.String("run_id", result.ID), zap.Error(err))
		fmt.Fprintln(stderr, "⚠️  could not publish the run:", err)
	}
	return 0
}

// publish hands the finished run to the sinks. It outlives a cancelled run
// context but is bounded by publishTimeout.
func publish(ctx context.Context, s sink.Sink, r *domain.Run) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	return s.Publish(ctx, r)
}
