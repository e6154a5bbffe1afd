package resilience

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/clock"
)

// ConnectivitySink receives network up/down edges.
type ConnectivitySink interface {
	NotifyOnline()
	NotifyOffline()
}

// DialFunc opens a connection; net.Dialer.DialContext satisfies it.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// NetworkWatcher periodically dials the backend address and reports
// reachability edges to the sink. It is the process-side counterpart of
// a browser's online/offline events.
type NetworkWatcher struct {
	target   string
	interval time.Duration
	timeout  time.Duration
	dial     DialFunc
	sink     ConnectivitySink
	clock    clock.Clock
	logger   *zap.Logger
	up       bool
}

// NewNetworkWatcher builds a watcher for target (host:port).
func NewNetworkWatcher(target string, interval time.Duration, sink ConnectivitySink, clk clock.Clock, logger *zap.Logger) *NetworkWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &net.Dialer{}
	return &NetworkWatcher{
		target:   target,
		interval: interval,
		timeout:  2 * time.Second,
		dial:     d.DialContext,
		sink:     sink,
		clock:    clk,
		logger:   logger,
		up:       true,
	}
}

// WithDialer replaces the dial function.
func (w *NetworkWatcher) WithDialer(dial DialFunc) *NetworkWatcher {
	w.dial = dial
	return w
}

// Check dials once and reports an edge if reachability changed.
func (w *NetworkWatcher) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	conn, err := w.dial(ctx, "tcp", w.target)
	up := err == nil
	if conn != nil {
		_ = conn.Close()
	}
	if up == w.up {
		return up
	}
	w.up = up
	if up {
		w.logger.Info("network reachable", zap.String("target", w.target))
		w.sink.NotifyOnline()
	} else {
		w.logger.Warn("network unreachable", zap.String("target", w.target), zap.Error(err))
		w.sink.NotifyOffline()
	}
	return up
}

// Run checks on every interval until ctx is done.
func (w *NetworkWatcher) Run(ctx context.Context) {
	if w.target == "" {
		return
	}
	for {
		w.Check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-w.clock.After(w.interval):
		}
	}
}
