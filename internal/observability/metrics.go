package observability

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/agency-ledger/internal/resilience"
)

// Metrics provides basic in-memory counters for requests, data-access
// retries and connection transitions.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	requestTime  map[string]time.Duration
	errorCount   map[string]int64
	retries      map[string]int64
	failures     map[string]int64
	transitions  map[resilience.Status]int64
	connection   resilience.State
}

// RouteStats summarizes one route, method and status combination.
type RouteStats struct {
	Route     string  `json:"route"`
	Method    string  `json:"method"`
	Status    int     `json:"status"`
	Count     int64   `json:"count"`
	AvgMillis float64 `json:"avgMillis"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests    []RouteStats                `json:"requests"`
	Errors      map[string]int64            `json:"errors"`
	Retries     map[string]int64            `json:"retries"`
	Failures    map[string]int64            `json:"failures"`
	Transitions map[resilience.Status]int64 `json:"transitions"`
	Connection  resilience.State            `json:"connection"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		requestTime:  make(map[string]time.Duration),
		errorCount:   make(map[string]int64),
		retries:      make(map[string]int64),
		failures:     make(map[string]int64),
		transitions:  make(map[resilience.Status]int64),
		connection:   resilience.State{Status: resilience.StatusOnline},
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestTime[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordRetry counts a retried data-access attempt.
func (m *Metrics) RecordRetry(op, kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries[op+"|"+kind]++
}

// RecordFailure counts a data-access call that gave up.
func (m *Metrics) RecordFailure(op, kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op+"|"+kind]++
}

// ConnectionListener tracks connection state for the snapshot.
func (m *Metrics) ConnectionListener() func(resilience.State) {
	return func(s resilience.State) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.connection = s
		m.transitions[s.Status]++
	}
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Requests:    make([]RouteStats, 0, len(m.requestCount)),
		Errors:      copyCounts(m.errorCount),
		Retries:     copyCounts(m.retries),
		Failures:    copyCounts(m.failures),
		Transitions: make(map[resilience.Status]int64, len(m.transitions)),
		Connection:  m.connection,
	}
	for k, v := range m.transitions {
		snap.Transitions[k] = v
	}
	for key, count := range m.requestCount {
		parts := strings.SplitN(key, "|", 3)
		status, _ := strconv.Atoi(parts[2])
		snap.Requests = append(snap.Requests, RouteStats{
			Route:     parts[0],
			Method:    parts[1],
			Status:    status,
			Count:     count,
			AvgMillis: float64(m.requestTime[key].Microseconds()) / float64(count) / 1000,
		})
	}
	sort.Slice(snap.Requests, func(i, j int) bool {
		a, b := snap.Requests[i], snap.Requests[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Status < b.Status
	})
	return snap
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
