package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/events"
)

// AuditedEvents lists every event that produces a log record.
var AuditedEvents = []events.EventType{
	events.EventTicketCreated,
	events.EventTicketUpdated,
	events.EventTicketDeleted,
	events.EventServiceTicketCreated,
	events.EventServiceTicketUpdated,
	events.EventServiceTicketDeleted,
	events.EventAgentCreated,
	events.EventAgentBalanceUpdated,
	events.EventUserCreated,
	events.EventUserRoleUpdated,
	events.EventUserBalanceUpdated,
	events.EventCurrencyCreated,
	events.EventCurrencyUpdated,
	events.EventCurrencyDeleted,
	events.EventServiceCreated,
	events.EventServiceUpdated,
}

// Subscriber writes a record for every audited event. Write failures are
// logged and swallowed; the mutation that produced the event has already
// been committed.
type Subscriber struct {
	builder *Builder
	sink    Sink
	logger  *zap.Logger
}

// NewSubscriber builds a subscriber.
func NewSubscriber(builder *Builder, sink Sink, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{builder: builder, sink: sink, logger: logger}
}

// Register subscribes to every audited event.
func (s *Subscriber) Register(dispatcher events.Dispatcher) {
	for _, t := range AuditedEvents {
		dispatcher.Subscribe(t, s.Handle)
	}
}

// Handle builds and writes the record for event. It never returns an error.
func (s *Subscriber) Handle(ctx context.Context, event events.Event) error {
	record, ok := s.builder.Build(event)
	if !ok {
		s.logger.Debug("event not audited", zap.String("event_type", string(event.Type)))
		return nil
	}
	if err := s.sink.Write(ctx, record); err != nil {
		s.logger.Error("audit log write failed",
			zap.String("event_id", event.ID),
			zap.String("action", string(record.Entry.Action)),
			zap.String("target_id", record.Entry.TargetID),
			zap.Error(err))
	}
	return nil
}
