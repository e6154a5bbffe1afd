package audit

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/internal/store"
)

// Feed keeps a live view of the most recent log entries. Deliveries may
// arrive in any order; the view is ordered by each entry's own
// timestamp, newest first.
type Feed struct {
	logs   repository.LogRepository
	limit  int
	logger *zap.Logger

	mu      sync.RWMutex
	entries []domain.LogEntry
	err     error
	unsub   store.Unsubscribe
}

// NewFeed builds a feed of up to limit entries.
func NewFeed(logs repository.LogRepository, limit int, logger *zap.Logger) *Feed {
	if limit <= 0 {
		limit = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{logs: logs, limit: limit, logger: logger}
}

// Start subscribes to the log collection.
func (f *Feed) Start(ctx context.Context) error {
	unsub, err := f.logs.SubscribeRecent(ctx, f.limit, f.apply, f.fail)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.unsub = unsub
	f.mu.Unlock()
	return nil
}

// Stop ends the subscription; no update is applied afterwards.
func (f *Feed) Stop() {
	f.mu.Lock()
	unsub := f.unsub
	f.unsub = nil
	f.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Entries returns the current view and the error that ended the
// subscription, if any.
func (f *Feed) Entries() ([]domain.LogEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.LogEntry(nil), f.entries...), f.err
}

func (f *Feed) apply(entries []domain.LogEntry) {
	ordered := OrderByTimestamp(entries)
	if len(ordered) > f.limit {
		ordered = ordered[:f.limit]
	}
	f.mu.Lock()
	f.entries = ordered
	f.err = nil
	f.mu.Unlock()
}

func (f *Feed) fail(err error) {
	f.logger.Warn("activity feed stopped", zap.Error(err))
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// OrderByTimestamp sorts newest first, breaking ties by id so the order
// is stable across deliveries.
func OrderByTimestamp(entries []domain.LogEntry) []domain.LogEntry {
	out := append([]domain.LogEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
