package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/clock"
	"github.com/spec-kit/agency-ledger/internal/i18n"
)

// Notification is a user-facing, non-blocking report of a failed
// operation or a connection change.
type Notification struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Kind      ErrorKind `json:"kind,omitempty"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	Offline   bool      `json:"offline,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives surfaced failures.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// NotificationCenter keeps the most recent notifications in a bounded
// ring, localizes their message and logs them.
type NotificationCenter struct {
	mu       sync.Mutex
	items    []Notification
	next     int
	full     bool
	localize *i18n.Localizer
	clock    clock.Clock
	logger   *zap.Logger
}

// NewNotificationCenter keeps up to capacity notifications.
func NewNotificationCenter(capacity int, localizer *i18n.Localizer, clk clock.Clock, logger *zap.Logger) *NotificationCenter {
	if capacity <= 0 {
		capacity = 50
	}
	if localizer == nil {
		localizer = i18n.New("")
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationCenter{
		items:    make([]Notification, capacity),
		localize: localizer,
		clock:    clk,
		logger:   logger,
	}
}

// Notify records n, filling in id, timestamp and localized message.
func (c *NotificationCenter) Notify(_ context.Context, n Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = c.clock.Now()
	}
	if n.Message == "" {
		key := n.Kind.messageKey()
		if n.Offline {
			key = i18n.NotifyOffline
		}
		n.Message = c.localize.Sprintf(key)
	}
	c.logger.Warn("data access notification",
		zap.String("op", n.Op),
		zap.String("kind", string(n.Kind)),
		zap.String("detail", n.Detail))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[c.next] = n
	c.next = (c.next + 1) % len(c.items)
	if c.next == 0 {
		c.full = true
	}
}

// Message localizes a connection-level message key.
func (c *NotificationCenter) Message(key i18n.Key) string {
	return c.localize.Sprintf(key)
}

// Recent returns notifications newest first.
func (c *NotificationCenter) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := c.next
	if c.full {
		size = len(c.items)
	}
	out := make([]Notification, 0, size)
	for i := 1; i <= size; i++ {
		idx := (c.next - i + len(c.items)) % len(c.items)
		out = append(out, c.items[idx])
	}
	return out
}

// ConnectionListener turns connection transitions into notifications:
// giving up after the reconnection budget, and recovering from it.
func (c *NotificationCenter) ConnectionListener() func(State) {
	var (
		mu   sync.Mutex
		prev = StatusOnline
	)
	return func(s State) {
		mu.Lock()
		from := prev
		prev = s.Status
		mu.Unlock()
		switch {
		case s.Status == StatusFailed && from != StatusFailed:
			c.Notify(context.Background(), Notification{
				Op:      "connection",
				Kind:    KindNetwork,
				Message: c.Message(i18n.NotifyReconnectFailed),
			})
		case s.Status == StatusOnline && from != StatusOnline:
			c.Notify(context.Background(), Notification{
				Op:      "connection",
				Message: c.Message(i18n.NotifyReconnected),
			})
		}
	}
}
