package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/providers"
	redisclient "github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/clients/redis"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
)

const subscriberBuffer = 64

// ErrBusClosed is returned by a closed event bus.
var ErrBusClosed = errors.New("event bus is closed")

// RedisEventBus relays clinical events over Redis Pub/Sub. Every Subscribe
// call owns one Redis subscription.
type RedisEventBus struct {
	client *redis.Client

	mu     sync.Mutex
	closed bool
	subs   map[*redis.PubSub]struct{}
	wg     sync.WaitGroup
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	return &RedisEventBus{
		client: client.Client(),
		subs:   make(map[*redis.PubSub]struct{}),
	}
}

// Publish sends event to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ClinicalEvent) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Msg("relayed clinical event")
	return nil
}

// Subscribe listens on channel until ctx ends or the bus is closed
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ClinicalEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	pubsub := b.client.Subscribe(context.Background(), channel)
	b.subs[pubsub] = struct{}{}
	b.wg.Add(1)
	b.mu.Unlock()

	// Wait for the confirmation so a publish right after Subscribe is seen.
	if _, err := pubsub.Receive(ctx); err != nil {
		b.release(pubsub)
		b.wg.Done()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan *entities.ClinicalEvent, subscriberBuffer)
	go b.forward(ctx, channel, pubsub, out)
	return out, nil
}

func (b *RedisEventBus) forward(ctx context.Context, channel string, pubsub *redis.PubSub, out chan<- *entities.ClinicalEvent) {
	defer b.wg.Done()
	defer close(out)
	defer b.release(pubsub)

	logger := observability.GetLogger()
	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event entities.ClinicalEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn().Err(err).Str("channel", channel).Msg("discarding undecodable event")
				continue
			}
			select {
			case out <- &event:
			default:
				logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber is full, dropping event")
			}
		}
	}
}

func (b *RedisEventBus) release(pubsub *redis.PubSub) {
	b.mu.Lock()
	_, owned := b.subs[pubsub]
	delete(b.subs, pubsub)
	b.mu.Unlock()
	if owned {
		_ = pubsub.Close()
	}
}

// Close ends every subscription. Closing twice is a no-op.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*redis.PubSub, 0, len(b.subs))
	for pubsub := range b.subs {
		subs = append(subs, pubsub)
	}
	b.subs = make(map[*redis.PubSub]struct{})
	b.mu.Unlock()

	var errs []error
	for _, pubsub := range subs {
		if err := pubsub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.wg.Wait()
	return errors.Join(errs...)
}
