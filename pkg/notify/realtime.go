package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/veltia-labs/veltia-core/pkg/store"
)

// RedisPublisher implements Publisher over a Redis pub/sub channel per
// prospect, the channel connected portal clients subscribe to.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher creates a publisher. prefix defaults to "chat".
func NewRedisPublisher(addr, password string, db int, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "chat"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisPublisher{client: rdb, prefix: prefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, prospectID string, payload *store.ChatMessage) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode realtime payload: %w", err)
	}
	channel := fmt.Sprintf("%s:%s", p.prefix, prospectID)
	if err := p.client.Publish(ctx, channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish on %s: %w", channel, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
