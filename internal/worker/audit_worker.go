package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/config"
)

// AuditWorker drains queued audit records into a sink.
type AuditWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// RedisOpt maps the redis settings onto asynq's connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// NewAuditWorker builds a worker consuming cfg.Queue.
func NewAuditWorker(redisOpt asynq.RedisConnOpt, cfg config.AuditConfig, sink audit.Sink, logger *zap.Logger) *AuditWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "audit"
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Warn("audit task error", zap.String("type", task.Type()), zap.Error(err))
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(audit.TaskTypeAppend, audit.NewTaskHandler(sink, logger).Handle)
	return &AuditWorker{server: srv, mux: mux, logger: logger}
}

// Run processes tasks until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		w.logger.Info("audit worker stopped")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
