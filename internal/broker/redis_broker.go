package broker

import (
	"context"
	"encoding/json"

	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventsChannel = "marketplace:events"

// RedisEventBroker implements EventBroker using pub/sub
type RedisEventBroker struct {
	client *redis.Client
}

// NewRedisEventBroker builds the client without dialing. The client
// reconnects on its own, so a Redis that is down at boot only delays delivery.
func NewRedisEventBroker(redisURL string) (*RedisEventBroker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return &RedisEventBroker{client: redis.NewClient(opt)}, nil
}

// Ping reports whether Redis is reachable right now
func (r *RedisEventBroker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisEventBroker) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, eventsChannel, data).Err()
}

func (r *RedisEventBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	pubsub := r.client.Subscribe(ctx, eventsChannel)

	// Wait for the subscription to be confirmed so no event published
	// right after Subscribe returns is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	events := make(chan Event, 100)

	go func() {
		defer close(events)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Log.Warn("Dropping malformed event", zap.Error(err))
					continue
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

func (r *RedisEventBroker) Close() error {
	return r.client.Close()
}
