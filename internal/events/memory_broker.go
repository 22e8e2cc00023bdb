package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/folio-site/folio-backend/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var _ Broker = (*MemoryBroker)(nil)

// MemoryBroker fans events out to subscribers inside one process.
type MemoryBroker struct {
	mu         sync.RWMutex
	subs       map[uint64]chan Event
	nextID     uint64
	bufferSize int
	closed     bool
	metrics    *metrics
	log        *zap.SugaredLogger
}

// NewMemoryBroker creates a broker whose subscriber channels hold bufferSize events.
func NewMemoryBroker(bufferSize int, reg prometheus.Registerer) *MemoryBroker {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &MemoryBroker{
		subs:       make(map[uint64]chan Event),
		bufferSize: bufferSize,
		metrics:    newMetrics(reg, "memory"),
		log:        logger.GetLogger().Named("memory_broker"),
	}
}

// Publish delivers event to every subscriber without blocking; full buffers drop it.
func (b *MemoryBroker) Publish(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		b.metrics.errorCount.WithLabelValues("publish", "validation").Inc()
		return fmt.Errorf("invalid event: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	b.metrics.published.WithLabelValues(string(event.Type)).Inc()
	for id, ch := range b.subs {
		select {
		case ch <- event:
			b.metrics.delivered.WithLabelValues(string(event.Type)).Inc()
		default:
			b.metrics.dropped.WithLabelValues(string(event.Type)).Inc()
			b.log.Warnw("Dropped event due to full channel", "subscriber", id, "eventType", event.Type)
		}
	}
	return nil
}

// Subscribe registers a new subscriber. The subscription also ends when ctx is done.
func (b *MemoryBroker) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, fmt.Errorf("broker is closed")
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.bufferSize)
	b.subs[id] = ch
	b.mu.Unlock()

	b.metrics.activeSubscribers.Inc()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			b.remove(id)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel, nil
}

func (b *MemoryBroker) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
		b.metrics.activeSubscribers.Dec()
	}
}

// Close ends every subscription. Later Publish and Subscribe calls fail.
func (b *MemoryBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
		b.metrics.activeSubscribers.Dec()
	}
}
