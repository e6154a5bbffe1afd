package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/observability"
	"github.com/spec-kit/agency-ledger/internal/persistence"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/internal/resilience"
	"github.com/spec-kit/agency-ledger/internal/worker"
)

func main() {
	envFile := pflag.String("env-file", "", "optional .env file to load before the environment")
	pflag.Parse()

	var paths []string
	if *envFile != "" {
		paths = append(paths, *envFile)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "worker")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := persistence.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open document store", zap.Error(err))
	}
	defer backend.Close()

	// Failed tasks are retried by asynq, so the store wrapper only covers
	// short blips and skips the connection state machine.
	retrier := resilience.NewRetrier(resilience.Policy{
		MaxAttempts:       cfg.Resilience.RetryAttempts,
		BaseDelay:         cfg.Resilience.RetryBaseDelay,
		NetworkMultiplier: 2,
	}, resilience.WithLogger(logger))
	docs := resilience.NewStore(backend.Store, retrier, resilience.SubscribeOptions{Logger: logger})

	sink := audit.NewDirectSink(repository.NewLogRepository(docs))
	w := worker.NewAuditWorker(worker.RedisOpt(cfg.Redis), cfg.Audit, sink, logger)

	logger.Info("audit worker starting", zap.String("queue", cfg.Audit.Queue))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("audit worker stopped", zap.Error(err))
	}
}
