// Package bus carries audit events between the API, the async worker, and
// downstream consumers.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-health/centinela/internal/domain"
)

// ChannelBus fans audit events out over in-process Go channels. It is the
// Community tier bus for single-node deployments. Delivery is best-effort:
// a subscriber that falls behind its buffer loses events, and every loss is
// counted and logged so a gap in the audit stream is never silent.
type ChannelBus struct {
	mu      sync.RWMutex
	buffer  int
	subs    map[string][]*channelSub
	dropped atomic.Int64
	closed  bool
}

type channelSub struct {
	id      string
	tenant  string
	topic   string
	handler domain.MessageHandler
	events  chan *domain.Message
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewChannelBus creates an in-process event bus. Each subscriber gets its
// own buffer of bufferSize events.
func NewChannelBus(bufferSize int) *ChannelBus {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &ChannelBus{
		buffer: bufferSize,
		subs:   make(map[string][]*channelSub),
	}
}

// Publish delivers an event to every subscriber of the tenant's topic.
// Publishing never blocks the audit path: a full subscriber buffer drops
// the event for that subscriber only.
func (b *ChannelBus) Publish(ctx context.Context, tenantID string, topic string, payload []byte) error {
	if tenantID == "" {
		return fmt.Errorf("tenantID is required")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bus is closed")
	}
	subs := b.subs[subKey(tenantID, topic)]
	b.mu.RUnlock()

	msg := &domain.Message{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Topic:     topic,
		Payload:   payload,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UnixNano(),
	}

	for _, sub := range subs {
		select {
		case sub.events <- msg:
		default:
			b.dropped.Add(1)
			slog.Warn("audit event dropped, subscriber buffer full",
				"tenant_id", tenantID,
				"topic", topic,
				"subscriber", sub.id,
			)
		}
	}

	return nil
}

// Subscribe registers a handler for a tenant's topic. Each subscriber runs
// its own dispatch goroutine, so one slow handler cannot stall the others.
func (b *ChannelBus) Subscribe(ctx context.Context, tenantID string, topic string, handler domain.MessageHandler) (domain.Subscription, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenantID is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}

	subCtx, cancel := context.WithCancel(ctx)

	sub := &channelSub{
		id:      uuid.New().String(),
		tenant:  tenantID,
		topic:   topic,
		handler: handler,
		events:  make(chan *domain.Message, b.buffer),
		ctx:     subCtx,
		cancel:  cancel,
	}

	go sub.dispatch()

	key := subKey(tenantID, topic)
	b.subs[key] = append(b.subs[key], sub)

	return sub, nil
}

// dispatch drains the subscriber's buffer until it is unsubscribed or the
// bus closes. Handler errors are logged, not propagated: one bad event must
// not stop the audit stream.
func (s *channelSub) dispatch() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.events:
			if msg == nil {
				return
			}
			if err := s.handler(s.ctx, msg); err != nil {
				slog.Error("event handler failed",
					"tenant_id", s.tenant,
					"topic", s.topic,
					"message_id", msg.ID,
					"error", err,
				)
			}
		}
	}
}

// Dropped reports how many events have been lost to full subscriber buffers
// since the bus was created.
func (b *ChannelBus) Dropped() int64 {
	return b.dropped.Load()
}

// Ping checks bus health.
func (b *ChannelBus) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("bus is closed")
	}
	return nil
}

// Close stops every subscriber and rejects further publishes.
func (b *ChannelBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.cancel()
			close(sub.events)
		}
	}

	b.subs = make(map[string][]*channelSub)
	return nil
}

func subKey(tenantID, topic string) string {
	return tenantID + ":" + topic
}

// Unsubscribe stops receiving messages.
func (s *channelSub) Unsubscribe() error {
	s.cancel()
	return nil
}

// Topic returns the subscribed topic.
func (s *channelSub) Topic() string {
	return s.topic
}
