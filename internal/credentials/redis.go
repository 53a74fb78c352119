package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
)

// RedisStore keeps credentials in a Redis hash and announces every change on
// a pub/sub channel, so clients on other hosts see logins and logouts.
type RedisStore struct {
	client  *redis.Client
	key     string
	channel string
}

// NewRedisStore creates a store for the given profile namespace.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{
		client:  client,
		key:     fmt.Sprintf("credentials:%s", namespace),
		channel: fmt.Sprintf("credentials:%s:changed", namespace),
	}
}

// Lookup returns the value stored under key.
func (s *RedisStore) Lookup(ctx context.Context, key string) (string, bool) {
	val, err := s.client.HGet(ctx, s.key, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Debugw("credentials lookup failed", "key", s.key, "field", key, "error", err)
		}
		return "", false
	}
	return val, true
}

// Set stores value under key and publishes the change.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	err := s.client.HSet(ctx, s.key, key, value).Err()

	logger.Log.Infow(
		"key", s.key,
		"field", key,
		"result", "set",
		"error", err,
	)

	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, key).Err()
}

// Delete removes key and publishes the change.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := s.client.HDel(ctx, s.key, key).Err()

	logger.Log.Infow(
		"key", s.key,
		"field", key,
		"result", "deleted",
		"error", err,
	)

	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, key).Err()
}

// Watch relays change announcements until ctx is done.
func (s *RedisStore) Watch(ctx context.Context, onChange func(key string)) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			onChange(msg.Payload)
		}
	}
}
