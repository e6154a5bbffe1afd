package repository

import (
	"context"

	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/store"
)

// LogRepository appends and reads audit records. Entries are never
// updated or deleted.
type LogRepository interface {
	Append(ctx context.Context, entry *domain.LogEntry) error
	AppendTicketLog(ctx context.Context, entry *domain.TicketLog) error
	Recent(ctx context.Context, limit int) ([]domain.LogEntry, error)
	ByActor(ctx context.Context, userID string, limit int) ([]domain.LogEntry, error)
	ByTicket(ctx context.Context, ticketID string) ([]domain.TicketLog, error)
	SubscribeRecent(ctx context.Context, limit int, onData func([]domain.LogEntry), onError func(error)) (store.Unsubscribe, error)
}

type logRepository struct {
	entries    collection[domain.LogEntry]
	ticketLogs collection[domain.TicketLog]
}

// NewLogRepository returns a document-store implementation.
func NewLogRepository(s store.DocumentStore) LogRepository {
	return &logRepository{
		entries:    newCollection[domain.LogEntry](s, CollectionLogs, "log entry"),
		ticketLogs: newCollection[domain.TicketLog](s, CollectionTicketLogs, "ticket log"),
	}
}

func (r *logRepository) Append(ctx context.Context, entry *domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	return r.entries.put(ctx, entry.ID, entry)
}

func (r *logRepository) AppendTicketLog(ctx context.Context, entry *domain.TicketLog) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	return r.ticketLogs.put(ctx, entry.ID, entry)
}

func (r *logRepository) Recent(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	return r.entries.query(ctx, store.Query{Limit: limit}.Sorted("timestamp", true))
}

func (r *logRepository) ByActor(ctx context.Context, userID string, limit int) ([]domain.LogEntry, error) {
	q := store.Query{Limit: limit}.Where("performedBy", store.OpEq, userID).Sorted("timestamp", true)
	return r.entries.query(ctx, q)
}

func (r *logRepository) ByTicket(ctx context.Context, ticketID string) ([]domain.TicketLog, error) {
	q := store.Query{}.Where("ticketId", store.OpEq, ticketID).Sorted("timestamp", false)
	return r.ticketLogs.query(ctx, q)
}

func (r *logRepository) SubscribeRecent(ctx context.Context, limit int, onData func([]domain.LogEntry), onError func(error)) (store.Unsubscribe, error) {
	return r.entries.subscribe(ctx, store.Query{Limit: limit}.Sorted("timestamp", true), onData, onError)
}
