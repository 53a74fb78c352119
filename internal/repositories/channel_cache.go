package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

// ErrCacheMiss is returned when no channel list is cached for a scope.
var ErrCacheMiss = errors.New("channel list not cached")

// ChannelCacheRepository keeps the last loaded channel list in Redis
type ChannelCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration duration for cached lists
}

// NewChannelCacheRepository creates a new repository instance with optional TTL
func NewChannelCacheRepository(client *redis.Client, expiration time.Duration) *ChannelCacheRepository {
	return &ChannelCacheRepository{
		client: client,
		exp:    expiration,
	}
}

// Get returns the cached channel list for scope
func (r *ChannelCacheRepository) Get(ctx context.Context, scope models.ChannelScope) ([]models.Channel, error) {
	key := fmt.Sprintf("channels:%s", scope)

	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		logger.Log.Infow(
			"key", key,
			"result", nil,
			"error", err,
		)
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var channels []models.Channel
	if err := json.Unmarshal(val, &channels); err != nil {
		logger.Log.Infow(
			"key", key,
			"value", string(val),
			"result", nil,
			"error", err,
		)
		return nil, err
	}

	logger.Log.Infow(
		"key", key,
		"result", len(channels),
		"error", nil,
	)

	return channels, nil
}

// Set caches the channel list for scope in Redis with expiration
func (r *ChannelCacheRepository) Set(ctx context.Context, scope models.ChannelScope, channels []models.Channel) error {
	key := fmt.Sprintf("channels:%s", scope)

	data, err := json.Marshal(channels)
	if err != nil {
		return err
	}
	err = r.client.Set(ctx, key, data, r.exp).Err()

	logger.Log.Infow(
		"key", key,
		"channels", len(channels),
		"result", "ok",
		"error", err,
	)

	return err
}
