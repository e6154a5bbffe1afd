package resilience

import (
	"context"

	"github.com/spec-kit/agency-ledger/internal/store"
)

// Store decorates a DocumentStore with retries, classification and
// subscription recovery. Ping goes straight to the backend so probes
// observe raw reachability.
type Store struct {
	backend store.DocumentStore
	retrier *Retrier
	subOpts SubscribeOptions
}

var _ store.DocumentStore = (*Store)(nil)

// NewStore wraps backend.
func NewStore(backend store.DocumentStore, retrier *Retrier, subOpts SubscribeOptions) *Store {
	if retrier == nil {
		retrier = NewRetrier(DefaultPolicy())
	}
	return &Store{backend: backend, retrier: retrier, subOpts: subOpts}
}

// Backend returns the wrapped store.
func (s *Store) Backend() store.DocumentStore {
	return s.backend
}

func (s *Store) Get(ctx context.Context, path store.Path) (store.Document, error) {
	return Call(ctx, s.retrier, path.Collection+".get", func(ctx context.Context) (store.Document, error) {
		return s.backend.Get(ctx, path)
	})
}

func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	return Call(ctx, s.retrier, q.Collection+".query", func(ctx context.Context) ([]store.Document, error) {
		return s.backend.Query(ctx, q)
	})
}

func (s *Store) Write(ctx context.Context, path store.Path, doc store.Document) error {
	return s.retrier.Do(ctx, path.Collection+".write", func(ctx context.Context) error {
		return s.backend.Write(ctx, path, doc)
	})
}

func (s *Store) Delete(ctx context.Context, path store.Path) error {
	return s.retrier.Do(ctx, path.Collection+".delete", func(ctx context.Context) error {
		return s.backend.Delete(ctx, path)
	})
}

// Subscribe fails fast while offline, like every other operation; once
// open, the subscription recovers by itself.
func (s *Store) Subscribe(ctx context.Context, q store.Query, onData func([]store.Document), onError func(error)) (store.Unsubscribe, error) {
	opts := s.subOpts
	opts.Op = q.Collection + ".subscribe"
	if s.retrier.reach != nil && !s.retrier.reach.Online() {
		failure := &Error{Op: opts.Op, Kind: KindNetwork, Attempts: 0, Err: ErrOffline}
		s.retrier.surface(ctx, failure)
		return nil, failure
	}
	if opts.Notifier == nil {
		opts.Notifier = s.retrier.notifier
	}
	if opts.Logger == nil {
		opts.Logger = s.retrier.logger
	}
	if opts.Clock == nil {
		opts.Clock = s.retrier.clock
	}
	return Subscribe(ctx, s.backend, q, onData, onError, opts)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// SentinelProbe reads a fixed document; a missing document still proves
// the backend answered.
func SentinelProbe(backend store.DocumentStore, path store.Path) Prober {
	return func(ctx context.Context) error {
		if err := backend.Ping(ctx); err != nil {
			return err
		}
		_, err := backend.Get(ctx, path)
		if err != nil && Classify(err) == KindNotFound {
			return nil
		}
		return err
	}
}
