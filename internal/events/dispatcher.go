package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// handlerSet is the subscription table shared by both dispatchers.
type handlerSet struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

func newHandlerSet(logger *zap.Logger) *handlerSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &handlerSet{listeners: make(map[EventType][]EventHandler), logger: logger}
}

func (h *handlerSet) Subscribe(eventType EventType, handler EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[eventType] = append(h.listeners[eventType], handler)
}

// deliver runs every handler; a failing or panicking handler never
// affects the others or the publisher.
func (h *handlerSet) deliver(ctx context.Context, event Event) {
	h.mu.RLock()
	handlers := append([]EventHandler{}, h.listeners[event.Type]...)
	h.mu.RUnlock()

	for _, handler := range handlers {
		h.invoke(ctx, handler, event)
	}
}

func (h *handlerSet) invoke(ctx context.Context, handler EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		h.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	*handlerSet
}

// NewInMemoryDispatcher creates a dispatcher that runs handlers inline.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	return &inMemoryDispatcher{handlerSet: newHandlerSet(logger)}
}

// Publish synchronously invokes handlers for the given event.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.deliver(ctx, event.withDefaults())
	return nil
}

// AsyncDispatcher queues events on a buffered channel drained by one
// goroutine, so publishers never wait on handlers. Events are dropped
// with a warning when the buffer is full.
type AsyncDispatcher struct {
	*handlerSet
	queue  chan queued
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

type queued struct {
	ctx   context.Context
	event Event
}

// NewAsyncDispatcher starts the consumer goroutine.
func NewAsyncDispatcher(buffer int, logger *zap.Logger) *AsyncDispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	d := &AsyncDispatcher{
		handlerSet: newHandlerSet(logger),
		queue:      make(chan queued, buffer),
		done:       make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues event. The request context is detached so handlers
// still run after the request completes.
func (d *AsyncDispatcher) Publish(ctx context.Context, event Event) error {
	event = event.withDefaults()
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("dispatcher closed, dropping event", zap.String("event_type", string(event.Type)))
		return nil
	}
	select {
	case d.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		d.logger.Warn("event buffer full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

func (d *AsyncDispatcher) run() {
	defer close(d.done)
	for q := range d.queue {
		d.deliver(q.ctx, q.event)
	}
}

// Close stops accepting events and waits for queued ones to be handled.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}
