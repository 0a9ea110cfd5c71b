// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"sync"
	"time"

	"github.com/dfalkner/meetcoach/internal/events"
)

// StreamMetrics holds aggregated counters for one inbound stream.
type StreamMetrics struct {
	Events        int64
	Fired         int64
	TotalHandling time.Duration
	MaxHandling   time.Duration
}

// StreamSnapshot provides computed stats for one stream.
type StreamSnapshot struct {
	Events        int64   `json:"events"`
	Fired         int64   `json:"fired"`
	AvgHandlingUs float64 `json:"avgHandlingUs"`
	MaxHandlingUs int64   `json:"maxHandlingUs"`
}

// Snapshot represents the full engine statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64          `json:"uptimeSeconds"`
	Ingestion     *StreamSnapshot  `json:"ingestion,omitempty"`
	Text          *StreamSnapshot  `json:"text,omitempty"`
	FiredByType   map[string]int64 `json:"firedByType,omitempty"`
}

// Stream names for the collector.
const (
	StreamIngestion = "ingestion"
	StreamText      = "text"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	streams   map[string]*StreamMetrics
	byType    map[events.FeedbackType]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		streams:   make(map[string]*StreamMetrics),
		byType:    make(map[events.FeedbackType]int64),
	}
}

// RecordEvent records one handled inbound event and its processing time.
// fired lists the alert types the event produced, if any.
func (c *Collector) RecordEvent(stream string, duration time.Duration, fired []events.FeedbackType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.streams[stream]
	if !ok {
		m = &StreamMetrics{}
		c.streams[stream] = m
	}
	m.Events++
	m.Fired += int64(len(fired))
	m.TotalHandling += duration
	if duration > m.MaxHandling {
		m.MaxHandling = duration
	}

	for _, t := range fired {
		c.byType[t]++
	}
}

// snapshotStream creates a snapshot for a stream, returning nil if no data.
func snapshotStream(m *StreamMetrics) *StreamSnapshot {
	if m == nil || m.Events == 0 {
		return nil
	}
	return &StreamSnapshot{
		Events:        m.Events,
		Fired:         m.Fired,
		AvgHandlingUs: float64(m.TotalHandling.Microseconds()) / float64(m.Events),
		MaxHandlingUs: m.MaxHandling.Microseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Ingestion:     snapshotStream(c.streams[StreamIngestion]),
		Text:          snapshotStream(c.streams[StreamText]),
	}
	if len(c.byType) > 0 {
		snap.FiredByType = make(map[string]int64, len(c.byType))
		for t, n := range c.byType {
			snap.FiredByType[string(t)] = n
		}
	}
	return snap
}
