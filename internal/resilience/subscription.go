package resilience

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/clock"
	"github.com/spec-kit/agency-ledger/internal/store"
)

// SubscribeOptions tunes realtime subscription recovery.
type SubscribeOptions struct {
	Op       string
	Schedule ConnectionConfig
	Clock    clock.Clock
	Logger   *zap.Logger
	Notifier Notifier
}

// subscription re-establishes a broken realtime listener on the
// reconnection schedule until it delivers again or the budget runs out.
// Once unsubscribe returns no callback fires, so callbacks must not call
// it themselves.
type subscription struct {
	ctx     context.Context
	cancel  context.CancelFunc
	backend store.DocumentStore
	query   store.Query
	onData  func([]store.Document)
	onError func(error)
	opts    SubscribeOptions

	alive atomic.Bool
	// deliver is held while a callback runs; unsubscribe waits on it.
	deliver sync.Mutex

	mu      sync.Mutex
	gen     uint64
	attempt int
	inner   store.Unsubscribe
	timer   clock.Timer
}

// Subscribe opens a recovering subscription on backend. The returned
// function stops it synchronously. A retryable failure of the first
// attempt is handled like a later interruption; only a permanent one is
// returned.
func Subscribe(ctx context.Context, backend store.DocumentStore, q store.Query, onData func([]store.Document), onError func(error), opts SubscribeOptions) (store.Unsubscribe, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Op == "" {
		opts.Op = q.Collection + ".subscribe"
	}
	opts.Schedule = opts.Schedule.withDefaults()

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &subscription{
		ctx:     subCtx,
		cancel:  cancel,
		backend: backend,
		query:   q,
		onData:  onData,
		onError: onError,
		opts:    opts,
	}
	s.alive.Store(true)

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	inner, err := backend.Subscribe(subCtx, q, s.dataFor(gen), s.errorFor(gen))
	if err != nil {
		if kind := Classify(err); !kind.Retryable() {
			s.alive.Store(false)
			cancel()
			return nil, &Error{Op: opts.Op, Kind: kind, Attempts: 1, Err: err}
		}
		s.handleError(gen, err)
		return s.unsubscribe, nil
	}
	s.attach(gen, inner)
	return s.unsubscribe, nil
}

func (s *subscription) dataFor(gen uint64) func([]store.Document) {
	return func(docs []store.Document) {
		s.deliver.Lock()
		defer s.deliver.Unlock()
		if !s.alive.Load() {
			return
		}
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.attempt = 0
		s.mu.Unlock()
		if s.onData != nil {
			s.onData(docs)
		}
	}
}

func (s *subscription) errorFor(gen uint64) func(error) {
	return func(err error) {
		s.handleError(gen, err)
	}
}

func (s *subscription) handleError(gen uint64, err error) {
	if !s.alive.Load() {
		return
	}
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.gen++
	stale := s.inner
	s.inner = nil
	s.attempt++
	attempt := s.attempt
	if attempt > s.opts.Schedule.MaxAttempts {
		s.mu.Unlock()
		if stale != nil {
			stale()
		}
		s.giveUp(attempt, err)
		return
	}
	delay := s.opts.Schedule.Delay(attempt)
	next := s.gen
	s.timer = s.opts.Clock.AfterFunc(delay, func() { s.resubscribe(next) })
	s.mu.Unlock()

	if stale != nil {
		stale()
	}
	s.opts.Logger.Warn("subscription interrupted, resubscribing",
		zap.String("op", s.opts.Op),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
		zap.Error(err))
}

// giveUp ends the subscription and reports failure, unless unsubscribe
// got there first.
func (s *subscription) giveUp(attempt int, err error) {
	s.deliver.Lock()
	defer s.deliver.Unlock()
	if !s.alive.CompareAndSwap(true, false) {
		return
	}
	s.cancel()
	failure := &Error{Op: s.opts.Op, Kind: Classify(err), Attempts: attempt, Err: err}
	s.opts.Logger.Error("subscription abandoned",
		zap.String("op", s.opts.Op), zap.Int("attempts", attempt), zap.Error(err))
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(s.ctx, Notification{Op: s.opts.Op, Kind: failure.Kind, Detail: err.Error()})
	}
	if s.onError != nil {
		s.onError(failure)
	}
}

func (s *subscription) resubscribe(gen uint64) {
	if !s.alive.Load() {
		return
	}
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	inner, err := s.backend.Subscribe(s.ctx, s.query, s.dataFor(gen), s.errorFor(gen))
	if err != nil {
		s.handleError(gen, err)
		return
	}
	s.attach(gen, inner)
}

// attach records inner unless the subscription moved on meanwhile, in
// which case inner is released immediately.
func (s *subscription) attach(gen uint64, inner store.Unsubscribe) {
	s.mu.Lock()
	if s.alive.Load() && gen == s.gen {
		s.inner = inner
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	if inner != nil {
		inner()
	}
}

func (s *subscription) unsubscribe() {
	wasAlive := s.alive.Swap(false)
	// Wait out a callback that passed the alive check before the swap.
	s.deliver.Lock()
	s.deliver.Unlock() //nolint:staticcheck
	if !wasAlive {
		return
	}
	s.mu.Lock()
	s.gen++
	inner := s.inner
	s.inner = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	if inner != nil {
		inner()
	}
	s.cancel()
}
