// Package metrics tracks pipeline request counters and latency.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter represents a monotonically increasing counter.
type Counter struct {
	value int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	atomic.AddInt64(&c.value, 1)
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return atomic.LoadInt64(&c.value)
}

// Gauge represents a value that can go up and down.
type Gauge struct {
	value int64
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() {
	atomic.AddInt64(&g.value, 1)
}

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() {
	atomic.AddInt64(&g.value, -1)
}

// Value returns the current gauge value.
func (g *Gauge) Value() int64 {
	return atomic.LoadInt64(&g.value)
}

// latencyWindow keeps the most recent latency observations for the
// snapshot's summary statistics.
const latencyWindow = 1024

// Metrics aggregates pipeline counters and a bounded latency window.
type Metrics struct {
	QueriesTotal  Counter
	QueriesFailed Counter
	InFlight      Gauge

	mu        sync.Mutex
	latencies []float64
}

// New creates an empty metrics set.
func New() *Metrics {
	return &Metrics{}
}

// ObserveLatency records one successful invocation's latency.
func (m *Metrics) ObserveLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latencies = append(m.latencies, d.Seconds())
	if len(m.latencies) > latencyWindow {
		m.latencies = m.latencies[len(m.latencies)-latencyWindow:]
	}
}

// Latencies returns a copy of the current latency window, in seconds.
func (m *Metrics) Latencies() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]float64, len(m.latencies))
	copy(out, m.latencies)
	return out
}
