package eventpublisher

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/loopmarket/treasury/internal/domain"
)

// RedisPublisher publishes outbox events to a Redis channel per
// aggregate type, e.g. "events.order".
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: "events",
	}
}

// Publish serializes the event and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	body, err := json.Marshal(map[string]any{
		"id":             event.ID,
		"aggregate_id":   event.AggregateID,
		"aggregate_type": event.AggregateType,
		"event_type":     event.EventType,
		"payload":        event.Payload,
		"created_at":     event.CreatedAt,
	})
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, p.channel+"."+event.AggregateType, body).Err()
}
