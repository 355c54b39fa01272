package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"huddle.websocket.go/internal/store"
)

const historyKey = "huddle:messages"

// RedisBackend keeps the snapshot as one JSON blob under historyKey.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend only fails on a malformed URL. An unreachable server
// surfaces later as Load and Save errors.
func NewRedisBackend(redisURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisBackend{client: redis.NewClient(opts), key: historyKey}, nil
}

func (r *RedisBackend) Load(ctx context.Context) ([]store.Message, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.key, err)
	}
	var msgs []store.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return msgs, nil
}

func (r *RedisBackend) Save(ctx context.Context, msgs []store.Message) error {
	if msgs == nil {
		msgs = []store.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return r.client.Set(ctx, r.key, data, 0).Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
