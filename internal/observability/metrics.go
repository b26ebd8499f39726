package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu               sync.Mutex
	requestCount     map[string]int64
	requestDuration  map[string]time.Duration
	errorCount       map[string]int64
	sideEffectFailed map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:     make(map[string]int64),
		requestDuration:  make(map[string]time.Duration),
		errorCount:       make(map[string]int64),
		sideEffectFailed: make(map[string]int64),
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
	m.requestDuration[key] += duration
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

// RecordSideEffectFailure counts a best-effort step (event append, auto-assign,
// notification, archive upload) that failed without failing its operation.
func (m *Metrics) RecordSideEffectFailure(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sideEffectFailed[name]++
}

// SideEffectFailures returns the failure count for one side effect.
func (m *Metrics) SideEffectFailures(name string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sideEffectFailed[name]
}

// Snapshot copies all counters. Keys are "path|method|status" for requests
// and latencies, "path|method|code" for errors.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	latency := make(map[string]int64, len(m.requestDuration))
	for k, total := range m.requestDuration {
		if n := m.requestCount[k]; n > 0 {
			latency[k] = (total / time.Duration(n)).Milliseconds()
		}
	}
	return map[string]map[string]int64{
		"requests":       copyCounts(m.requestCount),
		"latency_ms_avg": latency,
		"errors":         copyCounts(m.errorCount),
		"side_effects":   copyCounts(m.sideEffectFailed),
	}
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
