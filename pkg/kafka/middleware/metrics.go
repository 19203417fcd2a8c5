package kafka_middleware

import (
	"abclisting/pkg/kafka"
	"abclisting/pkg/logger"
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const unknownEventType = "unknown"

// EventCounters holds the counts for one event type.
type EventCounters struct {
	Published       int64
	PublishFailed   int64
	PublishDuration int64 // nanoseconds

	Consumed        int64
	ConsumeFailed   int64
	ConsumeDuration int64 // nanoseconds
}

// EventStats is a point-in-time copy of EventCounters.
type EventStats struct {
	EventType          string
	Published          int64
	PublishFailed      int64
	AvgPublishDuration time.Duration
	Consumed           int64
	ConsumeFailed      int64
	AvgConsumeDuration time.Duration
}

// Metrics counts kafka traffic per event type. The zero value is not usable;
// call NewMetrics.
type Metrics struct {
	mu     sync.RWMutex
	events map[string]*EventCounters
}

func NewMetrics() *Metrics {
	return &Metrics{events: make(map[string]*EventCounters)}
}

func (m *Metrics) counters(eventType string) *EventCounters {
	if eventType == "" {
		eventType = unknownEventType
	}

	m.mu.RLock()
	c, ok := m.events[eventType]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.events[eventType]; !ok {
		c = &EventCounters{}
		m.events[eventType] = c
	}
	return c
}

// Snapshot returns the stats of every event type seen so far, sorted by type.
func (m *Metrics) Snapshot() []EventStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make([]EventStats, 0, len(m.events))
	for eventType, c := range m.events {
		s := EventStats{
			EventType:     eventType,
			Published:     atomic.LoadInt64(&c.Published),
			PublishFailed: atomic.LoadInt64(&c.PublishFailed),
			Consumed:      atomic.LoadInt64(&c.Consumed),
			ConsumeFailed: atomic.LoadInt64(&c.ConsumeFailed),
		}
		if n := s.Published + s.PublishFailed; n > 0 {
			s.AvgPublishDuration = time.Duration(atomic.LoadInt64(&c.PublishDuration) / n)
		}
		if n := s.Consumed + s.ConsumeFailed; n > 0 {
			s.AvgConsumeDuration = time.Duration(atomic.LoadInt64(&c.ConsumeDuration) / n)
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].EventType < stats[j].EventType })
	return stats
}

// Reset drops all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string]*EventCounters)
}

// LogSnapshot writes one log line per event type.
func (m *Metrics) LogSnapshot(log *logger.Logger) {
	for _, s := range m.Snapshot() {
		log.Info("Kafka metrics",
			"event_type", s.EventType,
			"published", s.Published,
			"publish_failed", s.PublishFailed,
			"avg_publish_duration", s.AvgPublishDuration,
			"consumed", s.Consumed,
			"consume_failed", s.ConsumeFailed,
			"avg_consume_duration", s.AvgConsumeDuration,
		)
	}
}

// Reporter logs a snapshot every interval until ctx is done, then logs a
// final one.
func (m *Metrics) Reporter(log *logger.Logger, interval time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				m.LogSnapshot(log)
				return nil
			case <-ticker.C:
				m.LogSnapshot(log)
			}
		}
	}
}

func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		c := m.counters(msg.GetEventType())
		atomic.AddInt64(&c.PublishDuration, int64(time.Since(start)))
		if err != nil {
			atomic.AddInt64(&c.PublishFailed, 1)
		} else {
			atomic.AddInt64(&c.Published, 1)
		}
		return err
	}
}

func MetricsConsumerMiddleware(m *Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		c := m.counters(msg.GetEventType())
		atomic.AddInt64(&c.ConsumeDuration, int64(time.Since(start)))
		if err != nil {
			atomic.AddInt64(&c.ConsumeFailed, 1)
		} else {
			atomic.AddInt64(&c.Consumed, 1)
		}
		return err
	}
}
