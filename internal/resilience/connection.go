package resilience

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/agency-ledger/internal/clock"
)

// Status is the coarse connection state.
type Status string

const (
	StatusOnline       Status = "online"
	StatusReconnecting Status = "reconnecting"
	StatusOffline      Status = "offline"
	StatusFailed       Status = "failed"
)

// State is the connection state; Attempt is set while reconnecting.
type State struct {
	Status  Status `json:"status"`
	Attempt int    `json:"attempt,omitempty"`
}

// Prober performs the lightweight reachability read.
type Prober func(ctx context.Context) error

// DefaultSchedule is the progressive reconnection delay, indexed by
// attempt and capped at the last entry.
func DefaultSchedule() []time.Duration {
	return []time.Duration{time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second, 30 * time.Second}
}

// ConnectionConfig tunes the reconnection state machine.
type ConnectionConfig struct {
	Schedule     []time.Duration
	MaxAttempts  int
	ProbeTimeout time.Duration
}

func (c ConnectionConfig) withDefaults() ConnectionConfig {
	if len(c.Schedule) == 0 {
		c.Schedule = DefaultSchedule()
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	return c
}

// Delay returns the wait before probing for the given attempt (1-based).
func (c ConnectionConfig) Delay(attempt int) time.Duration {
	c = c.withDefaults()
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.Schedule) {
		idx = len(c.Schedule) - 1
	}
	return c.Schedule[idx]
}

// ConnectionManager tracks backend connectivity:
//
//	Online -> Reconnecting(1) on a classified network error
//	Reconnecting(N) -> Online on a successful probe
//	Reconnecting(N) -> Reconnecting(N+1) on probe failure while N < max
//	Reconnecting(N) -> Failed on probe failure once N >= max
//	any -> Offline on an offline signal
//
// Failed only leaves through Retry or an online signal.
type ConnectionManager struct {
	mu         sync.Mutex
	cfg        ConnectionConfig
	clock      clock.Clock
	probe      Prober
	logger     *zap.Logger
	state      State
	networkUp  bool
	timer      clock.Timer
	generation uint64
	listeners  []func(State)
	probes     singleflight.Group
}

// NewConnectionManager starts Online with the network assumed up.
func NewConnectionManager(cfg ConnectionConfig, probe Prober, clk clock.Clock, logger *zap.Logger) *ConnectionManager {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionManager{
		cfg:       cfg.withDefaults(),
		clock:     clk,
		probe:     probe,
		logger:    logger,
		state:     State{Status: StatusOnline},
		networkUp: true,
	}
}

// State returns the current state.
func (m *ConnectionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Online is the reachability flag used by the retry gate.
func (m *ConnectionManager) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.networkUp
}

// OnChange registers a listener called after every transition.
func (m *ConnectionManager) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// ReportNetworkError starts reconnecting when currently online.
func (m *ConnectionManager) ReportNetworkError(err error) {
	m.mu.Lock()
	if m.state.Status != StatusOnline {
		m.mu.Unlock()
		return
	}
	m.logger.Warn("connection lost, reconnecting", zap.Error(err))
	m.setLocked(State{Status: StatusReconnecting, Attempt: 1})
	m.scheduleLocked(1)
	m.emitUnlock()
}

// NotifyOffline records that the network went away and cancels any
// pending probe.
func (m *ConnectionManager) NotifyOffline() {
	m.mu.Lock()
	m.networkUp = false
	m.cancelLocked()
	if m.state.Status == StatusOffline {
		m.mu.Unlock()
		return
	}
	m.setLocked(State{Status: StatusOffline})
	m.emitUnlock()
}

// NotifyOnline records that the network is back and probes immediately,
// skipping any pending backoff.
func (m *ConnectionManager) NotifyOnline() {
	m.mu.Lock()
	m.networkUp = true
	if m.state.Status == StatusOnline {
		m.mu.Unlock()
		return
	}
	m.cancelLocked()
	if m.state.Status != StatusReconnecting {
		m.setLocked(State{Status: StatusReconnecting, Attempt: 1})
	}
	gen := m.generation
	m.emitUnlock()
	m.runProbe(gen)
}

// Retry is the manual, user-triggered reconnection. It restarts the
// attempt count and probes immediately.
func (m *ConnectionManager) Retry() State {
	m.mu.Lock()
	if m.state.Status == StatusOnline {
		defer m.mu.Unlock()
		return m.state
	}
	m.cancelLocked()
	m.setLocked(State{Status: StatusReconnecting, Attempt: 1})
	gen := m.generation
	m.emitUnlock()
	m.runProbe(gen)
	return m.State()
}

// Close cancels pending probes.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
}

func (m *ConnectionManager) runProbe(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.state.Status != StatusReconnecting {
		m.mu.Unlock()
		return
	}
	attempt := m.state.Attempt
	m.mu.Unlock()

	_, err, _ := m.probes.Do("probe", func() (any, error) {
		if m.probe == nil {
			return nil, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ProbeTimeout)
		defer cancel()
		return nil, m.probe(ctx)
	})

	m.mu.Lock()
	if gen != m.generation || m.state.Status != StatusReconnecting {
		m.mu.Unlock()
		return
	}
	if err == nil {
		m.logger.Info("connection restored", zap.Int("attempt", attempt))
		m.timer = nil
		m.setLocked(State{Status: StatusOnline})
		m.emitUnlock()
		return
	}
	if m.state.Attempt >= m.cfg.MaxAttempts {
		m.logger.Error("reconnection failed, manual retry required",
			zap.Int("attempts", m.state.Attempt), zap.Error(err))
		m.timer = nil
		m.setLocked(State{Status: StatusFailed, Attempt: m.state.Attempt})
		m.emitUnlock()
		return
	}
	next := m.state.Attempt + 1
	m.logger.Warn("reconnection probe failed", zap.Int("attempt", m.state.Attempt), zap.Error(err))
	m.setLocked(State{Status: StatusReconnecting, Attempt: next})
	m.scheduleLocked(next)
	m.emitUnlock()
}

func (m *ConnectionManager) scheduleLocked(attempt int) {
	if m.timer != nil {
		m.timer.Stop()
	}
	gen := m.generation
	m.timer = m.clock.AfterFunc(m.cfg.Delay(attempt), func() { m.runProbe(gen) })
}

// cancelLocked stops the pending probe and invalidates in-flight ones.
func (m *ConnectionManager) cancelLocked() {
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *ConnectionManager) setLocked(s State) {
	m.state = s
}

// emitUnlock releases the lock and notifies listeners of the state
// captured while it was held.
func (m *ConnectionManager) emitUnlock() {
	state := m.state
	listeners := append([]func(State){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(state)
	}
}
