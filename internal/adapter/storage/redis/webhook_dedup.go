package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// WebhookDedupStore implements ports.WebhookDedupStore using Redis SET NX.
// It is a fast-path shield in front of the durable idempotency store: a
// delivery key seen within the TTL is rejected without touching Postgres.
type WebhookDedupStore struct {
	client *goredis.Client
	prefix string
}

// NewWebhookDedupStore creates a new Redis-backed webhook dedup store.
func NewWebhookDedupStore(client *goredis.Client) *WebhookDedupStore {
	return &WebhookDedupStore{
		client: client,
		prefix: "webhook:seen:",
	}
}

// CheckAndSet atomically checks if a delivery key exists, marking it if not.
// Returns true if the key is new, false if the delivery was already seen.
func (s *WebhookDedupStore) CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	redisKey := s.prefix + key
	result, err := s.client.SetArgs(ctx, redisKey, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists, delivery was already processed
			return false, nil
		}
		return false, fmt.Errorf("redis webhook dedup: %w", err)
	}
	return result == "OK", nil
}
