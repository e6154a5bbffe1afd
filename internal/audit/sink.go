package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/repository"
)

// TaskTypeAppend is the asynq task carrying one Record.
const TaskTypeAppend = "audit:append"

// Sink persists records.
type Sink interface {
	Write(ctx context.Context, record Record) error
}

// DirectSink appends records straight to the log repository.
type DirectSink struct {
	logs repository.LogRepository
}

// NewDirectSink builds a sink over logs.
func NewDirectSink(logs repository.LogRepository) *DirectSink {
	return &DirectSink{logs: logs}
}

func (s *DirectSink) Write(ctx context.Context, record Record) error {
	entry := record.Entry
	if err := s.logs.Append(ctx, &entry); err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	if record.TicketLog != nil {
		tl := *record.TicketLog
		if err := s.logs.AppendTicketLog(ctx, &tl); err != nil {
			return fmt.Errorf("append ticket log: %w", err)
		}
	}
	return nil
}

// Enqueuer is the part of asynq.Client the queue sink needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink hands records to the worker process through asynq.
type QueueSink struct {
	client Enqueuer
	queue  string
}

// NewQueueSink builds a sink enqueuing on queue.
func NewQueueSink(client Enqueuer, queue string) *QueueSink {
	if queue == "" {
		queue = "audit"
	}
	return &QueueSink{client: client, queue: queue}
}

func (s *QueueSink) Write(ctx context.Context, record Record) error {
	task, err := NewAppendTask(record)
	if err != nil {
		return err
	}
	// The entry id doubles as the task id so a replayed event is
	// enqueued once.
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.Queue(s.queue),
		asynq.TaskID(record.Entry.ID),
		asynq.MaxRetry(10))
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue audit record: %w", err)
	}
	return nil
}

// NewAppendTask constructs an asynq task for record.
func NewAppendTask(record Record) (*asynq.Task, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAppend, data), nil
}

// TaskHandler processes TaskTypeAppend tasks in the worker.
type TaskHandler struct {
	sink   Sink
	logger *zap.Logger
}

// NewTaskHandler writes dequeued records through sink.
func NewTaskHandler(sink Sink, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{sink: sink, logger: logger}
}

// Handle decodes and writes one record. Malformed payloads are skipped
// rather than retried.
func (h *TaskHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var record Record
	if err := json.Unmarshal(t.Payload(), &record); err != nil {
		h.logger.Error("discarding malformed audit task", zap.Error(err))
		return fmt.Errorf("decode audit task: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.sink.Write(ctx, record); err != nil {
		h.logger.Warn("audit task failed",
			zap.String("entry_id", record.Entry.ID),
			zap.String("action", string(record.Entry.Action)),
			zap.Error(err))
		return err
	}
	return nil
}
