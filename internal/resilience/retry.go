package resilience

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/clock"
)

// Policy bounds the retry loop. Delays grow linearly with the attempt
// number and are multiplied for network failures; there is no jitter.
type Policy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	NetworkMultiplier int
}

// DefaultPolicy is three attempts with a one second base delay.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, NetworkMultiplier: 2}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(kind ErrorKind, attempt int) time.Duration {
	d := p.BaseDelay * time.Duration(attempt)
	if kind == KindNetwork {
		m := p.NetworkMultiplier
		if m <= 0 {
			m = 2
		}
		d *= time.Duration(m)
	}
	return d
}

// Reachability reports the live network reachability signal.
type Reachability interface {
	Online() bool
}

// NetworkReporter is told about classified network failures.
type NetworkReporter interface {
	ReportNetworkError(err error)
}

// Observer records retry activity.
type Observer interface {
	RecordRetry(op, kind string)
	RecordFailure(op, kind string)
}

// Retrier runs operations under a Policy.
type Retrier struct {
	policy   Policy
	clock    clock.Clock
	reach    Reachability
	notifier Notifier
	reporter NetworkReporter
	observer Observer
	logger   *zap.Logger
}

// Option configures a Retrier.
type Option func(*Retrier)

func WithClock(c clock.Clock) Option { return func(r *Retrier) { r.clock = c } }

func WithReachability(reach Reachability) Option { return func(r *Retrier) { r.reach = reach } }

func WithNotifier(n Notifier) Option { return func(r *Retrier) { r.notifier = n } }

func WithNetworkReporter(rep NetworkReporter) Option { return func(r *Retrier) { r.reporter = rep } }

func WithObserver(o Observer) Option { return func(r *Retrier) { r.observer = o } }

func WithLogger(l *zap.Logger) Option { return func(r *Retrier) { r.logger = l } }

// NewRetrier builds a Retrier. Zero policy fields take the defaults.
func NewRetrier(policy Policy, opts ...Option) *Retrier {
	def := DefaultPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = def.BaseDelay
	}
	if policy.NetworkMultiplier <= 0 {
		policy.NetworkMultiplier = def.NetworkMultiplier
	}
	r := &Retrier{policy: policy, clock: clock.Real(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the effective policy.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do runs fn until it succeeds, fails with a non-retryable error or the
// attempt budget is spent. Failures come back as *Error.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := Call(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call is Do for operations that return a value.
func Call[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if r.reach != nil && !r.reach.Online() {
		failure := &Error{Op: op, Kind: KindNetwork, Attempts: 0, Err: ErrOffline}
		r.surface(ctx, failure)
		return zero, failure
	}

	var (
		lastErr  error
		lastKind ErrorKind
		attempt  int
	)
	for attempt = 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		lastKind = Classify(err)

		if lastKind == KindNetwork && r.reporter != nil {
			r.reporter.ReportNetworkError(err)
		}
		if !lastKind.Retryable() || attempt >= r.policy.MaxAttempts {
			break
		}

		delay := r.policy.Delay(lastKind, attempt)
		r.logger.Debug("retrying data access",
			zap.String("op", op),
			zap.String("kind", string(lastKind)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if r.observer != nil {
			r.observer.RecordRetry(op, string(lastKind))
		}
		if err := r.wait(ctx, delay); err != nil {
			lastErr = err
			lastKind = Classify(err)
			break
		}
	}

	failure := &Error{Op: op, Kind: lastKind, Attempts: attempt, Err: lastErr}
	r.surface(ctx, failure)
	return zero, failure
}

func (r *Retrier) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clock.After(d):
		return nil
	}
}

func (r *Retrier) surface(ctx context.Context, failure *Error) {
	if r.observer != nil {
		r.observer.RecordFailure(failure.Op, string(failure.Kind))
	}
	// Missing documents and caller cancellation are ordinary outcomes,
	// not something to put in front of the user.
	if failure.Kind == KindNotFound || errors.Is(failure.Err, context.Canceled) {
		return
	}
	r.logger.Warn("data access failed",
		zap.String("op", failure.Op),
		zap.String("kind", string(failure.Kind)),
		zap.Int("attempts", failure.Attempts),
		zap.Error(failure.Err))
	if r.notifier != nil {
		r.notifier.Notify(ctx, Notification{
			Op:      failure.Op,
			Kind:    failure.Kind,
			Detail:  failure.Err.Error(),
			Offline: errors.Is(failure.Err, ErrOffline),
		})
	}
}
