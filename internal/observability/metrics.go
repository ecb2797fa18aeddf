package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	totalDuration map[string]time.Duration
}

// RouteMetric is one counter row of a snapshot.
type RouteMetric struct {
	Key          string  `json:"key"`
	Count        int64   `json:"count"`
	AvgLatencyMs float64 `json:"avg_latency_ms,omitempty"`
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Requests []RouteMetric `json:"requests"`
	Errors   []RouteMetric `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		totalDuration: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := pathKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the counters, sorted by key.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Requests: []RouteMetric{}, Errors: []RouteMetric{}}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, count := range m.requestCount {
		avg := float64(m.totalDuration[key].Microseconds()) / float64(count) / 1000
		snap.Requests = append(snap.Requests, RouteMetric{Key: key, Count: count, AvgLatencyMs: avg})
	}
	for key, count := range m.errorCount {
		snap.Errors = append(snap.Errors, RouteMetric{Key: key, Count: count})
	}
	sort.Slice(snap.Requests, func(i, j int) bool { return snap.Requests[i].Key < snap.Requests[j].Key })
	sort.Slice(snap.Errors, func(i, j int) bool { return snap.Errors[i].Key < snap.Errors[j].Key })
	return snap
}

func pathKey(path, method, suffix string) string {
	return path + "|" + method + "|" + suffix
}
