// Package profilecache puts a redis read-through cache in front of a profile directory.
package profilecache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

const keyPrefix = "profile_display:"

// KV is the subset of *redis.Client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Directory struct {
	next   domain.ProfileDirectory
	kv     KV
	ttl    time.Duration
	logger *slog.Logger
}

func NewDirectory(next domain.ProfileDirectory, kv KV, ttl time.Duration, logger *slog.Logger) *Directory {
	return &Directory{
		next:   next,
		kv:     kv,
		ttl:    ttl,
		logger: logging.OrDefault(logger).With("component", "profile_cache"),
	}
}

// Display serves from redis when possible. Cache failures never fail the lookup.
func (d *Directory) Display(ctx context.Context, userID string) (*domain.ProfileDisplay, error) {
	key := keyPrefix + userID

	raw, err := d.kv.Get(ctx, key).Result()
	switch {
	case err == nil:
		var display domain.ProfileDisplay
		if jsonErr := json.Unmarshal([]byte(raw), &display); jsonErr == nil {
			return &display, nil
		}
		d.logger.Warn("corrupt cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		d.logger.Warn("cache read failed", "key", key, "error", err)
	}

	display, err := d.next.Display(ctx, userID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(display); err == nil {
		if err := d.kv.Set(ctx, key, payload, d.ttl).Err(); err != nil {
			d.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return display, nil
}

// Forget drops a cached entry, e.g. after the user edits their profile.
func (d *Directory) Forget(ctx context.Context, userID string) error {
	return d.kv.Del(ctx, keyPrefix+userID).Err()
}
