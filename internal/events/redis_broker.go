package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/folio-site/folio-backend/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Broker = (*RedisBroker)(nil)

// Config holds configuration for RedisBroker.
type Config struct {
	Channel          string
	PublishTimeout   time.Duration
	SubscribeTimeout time.Duration
	EventBufferSize  int
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		Channel:          DefaultChannel,
		PublishTimeout:   5 * time.Second,
		SubscribeTimeout: 10 * time.Second,
		EventBufferSize:  32,
	}
}

// RedisBroker implements Broker on Redis Pub/Sub so every server instance
// sees every change.
type RedisBroker struct {
	rdb     *redis.Client
	config  Config
	metrics *metrics
	log     *zap.SugaredLogger

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscription
	wg     sync.WaitGroup
}

type subscription struct {
	pubsub    *redis.PubSub
	cancelCtx context.CancelFunc
	closeOnce sync.Once
}

func (s *subscription) close(log *zap.SugaredLogger) {
	s.closeOnce.Do(func() {
		s.cancelCtx()
		if err := s.pubsub.Close(); err != nil {
			log.Errorw("Error closing pubsub", "error", err)
		}
	})
}

// NewRedisBroker creates a RedisBroker. Zero fields in cfg take DefaultConfig values.
func NewRedisBroker(rdb *redis.Client, cfg Config, reg prometheus.Registerer) *RedisBroker {
	def := DefaultConfig()
	if cfg.Channel == "" {
		cfg.Channel = def.Channel
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = def.PublishTimeout
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = def.SubscribeTimeout
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = def.EventBufferSize
	}

	return &RedisBroker{
		rdb:     rdb,
		config:  cfg,
		metrics: newMetrics(reg, "redis"),
		log:     logger.GetLogger().Named("redis_broker"),
		subs:    make(map[uint64]*subscription),
	}
}

// Publish publishes an event on the configured channel.
func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		b.metrics.errorCount.WithLabelValues("publish", "validation").Inc()
		return fmt.Errorf("invalid event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.metrics.errorCount.WithLabelValues("publish", "marshal").Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.PublishTimeout)
	defer cancel()

	if err := b.rdb.Publish(ctx, b.config.Channel, data).Err(); err != nil {
		b.metrics.errorCount.WithLabelValues("publish", "redis").Inc()
		return fmt.Errorf("redis publish: %w", err)
	}

	b.metrics.published.WithLabelValues(string(event.Type)).Inc()
	return nil
}

// Subscribe opens a Pub/Sub subscription and waits for Redis to confirm it.
func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	pubsub := b.rdb.Subscribe(ctx, b.config.Channel)

	receiveCtx, cancelReceive := context.WithTimeout(ctx, b.config.SubscribeTimeout)
	defer cancelReceive()
	if _, err := pubsub.Receive(receiveCtx); err != nil {
		_ = pubsub.Close()
		b.metrics.errorCount.WithLabelValues("subscribe", "redis").Inc()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{pubsub: pubsub, cancelCtx: cancel}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	b.metrics.activeSubscribers.Inc()

	events := make(chan Event, b.config.EventBufferSize)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			sub.close(b.log)
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(events)
			b.metrics.activeSubscribers.Dec()
			b.log.Debugw("Subscription closed", "subscriber", id)
		}()
		b.forward(subCtx, pubsub.Channel(), events)
	}()

	return events, func() { sub.close(b.log) }, nil
}

// forward decodes Redis messages onto out until ctx ends or in closes.
// Events are dropped when out is full.
func (b *RedisBroker) forward(ctx context.Context, in <-chan *redis.Message, out chan<- Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.metrics.errorCount.WithLabelValues("process", "unmarshal").Inc()
				b.log.Errorw("Failed to unmarshal event", "error", err)
				continue
			}

			select {
			case out <- event:
				b.metrics.delivered.WithLabelValues(string(event.Type)).Inc()
			default:
				b.metrics.dropped.WithLabelValues(string(event.Type)).Inc()
				b.log.Warnw("Dropped event due to full channel", "eventType", event.Type)
			}
		}
	}
}

// Shutdown closes every subscription and waits for their goroutines.
func (b *RedisBroker) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	b.log.Infow("Shutting down RedisBroker, closing subscriptions...", "count", len(subs))
	for _, sub := range subs {
		sub.close(b.log)
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("RedisBroker shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("redis broker shutdown: %w", ctx.Err())
	}
}
