package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/metrics"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

//go:generate mockgen -source=channel.go -destination=mock_channel_test.go -package=services

// ErrChannelsUnavailable is returned when the channel list cannot be loaded.
var ErrChannelsUnavailable = errors.New("failed to load payment channels")

// ChannelReader lists payment channels.
type ChannelReader interface {
	List(ctx context.Context, filter models.ChannelFilter) ([]models.Channel, error) // Returns channels in filter order
}

// ChannelCache keeps the last loaded channel list per scope.
type ChannelCache interface {
	Get(ctx context.Context, scope models.ChannelScope) ([]models.Channel, error)          // Returns the cached list
	Set(ctx context.Context, scope models.ChannelScope, channels []models.Channel) error // Replaces the cached list
}

// ChannelDirectory caches the payment channel list and filters it by method.
type ChannelDirectory struct {
	reader ChannelReader
	cache  ChannelCache

	mu       sync.Mutex
	channels []models.Channel
	loaded   bool
	fetching bool
	err      error
}

// NewChannelDirectory creates an empty ChannelDirectory. cache may be nil.
func NewChannelDirectory(reader ChannelReader, cache ChannelCache) *ChannelDirectory {
	return &ChannelDirectory{reader: reader, cache: cache}
}

// Refresh reloads the list for scope. On failure the previous list is kept
// and Err reports ErrChannelsUnavailable until the next successful refresh.
// If nothing was loaded yet, the list last stored in the cache is served.
func (d *ChannelDirectory) Refresh(ctx context.Context, scope models.ChannelScope) error {
	d.mu.Lock()
	d.fetching = true
	d.mu.Unlock()

	channels, err := d.reader.List(ctx, scope.Filter())

	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetching = false

	if err != nil {
		metrics.ChannelFetches.WithLabelValues("error").Inc()
		logger.Log.Errorw("failed to load channels", "scope", scope, "error", err)
		d.err = fmt.Errorf("%w: %v", ErrChannelsUnavailable, err)
		if !d.loaded && d.cache != nil {
			if cached, cacheErr := d.cache.Get(ctx, scope); cacheErr == nil {
				logger.Log.Warnw("serving cached channels", "scope", scope, "channels", len(cached))
				d.channels = cached
				d.loaded = true
			}
		}
		return d.err
	}

	metrics.ChannelFetches.WithLabelValues("ok").Inc()
	d.channels = channels
	d.loaded = true
	d.err = nil

	if d.cache != nil {
		if err := d.cache.Set(ctx, scope, channels); err != nil {
			logger.Log.Warnw("failed to cache channels", "scope", scope, "error", err)
		}
	}
	return nil
}

// Loaded reports whether any refresh has succeeded.
func (d *ChannelDirectory) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// Fetching reports whether a refresh is in flight.
func (d *ChannelDirectory) Fetching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fetching
}

// Err returns the error of the last refresh, or nil.
func (d *ChannelDirectory) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Channels returns a copy of the cached channels in fetch order.
func (d *ChannelDirectory) Channels() []models.Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Channel, len(d.channels))
	copy(out, d.channels)
	return out
}

// Filter returns the cached active channels matching method, in fetch order.
func (d *ChannelDirectory) Filter(method models.Method) []models.Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Channel, 0, len(d.channels))
	for _, ch := range d.channels {
		if ch.Active() && ch.Matches(method) {
			out = append(out, ch)
		}
	}
	return out
}

// Lookup returns the cached channel with id.
func (d *ChannelDirectory) Lookup(id int64) (models.Channel, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return models.Channel{}, false
}
