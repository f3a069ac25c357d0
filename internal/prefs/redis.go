package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists preferences in a Redis hash per client. The hash TTL
// is refreshed on every write to match the preference cookie lifetime, so
// the two stores expire together.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds connection settings for the Redis preference store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(clientID string) string {
	return "prefs:" + clientID
}

func (s *RedisStore) Set(ctx context.Context, clientID, name, value string) error {
	key := s.key(clientID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, name, value)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %q: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, clientID, name string) (string, error) {
	value, err := s.client.HGet(ctx, s.key(clientID), name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get %q: %w", name, err)
	}
	return value, nil
}

func (s *RedisStore) Delete(ctx context.Context, clientID, name string) error {
	if err := s.client.HDel(ctx, s.key(clientID), name).Err(); err != nil {
		return fmt.Errorf("redis delete %q: %w", name, err)
	}
	return nil
}
