package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// recordTTL is how long a sent alert stays suppressed. Keys carry the alert
// day, so the TTL is a safety net that keeps stale keys from accumulating.
const recordTTL = 24 * time.Hour

// Deduplicator checks and records whether an alert has been sent recently.
// When Redis is unreachable it fails closed: an alert is treated as already
// sent rather than risking a duplicate notification.
type Deduplicator struct {
	rdb *redis.Client
}

// New creates a Deduplicator backed by Redis.
func New(redisURL, password string) (*Deduplicator, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Deduplicator{rdb: rdb}, nil
}

// Close shuts down the Redis connection.
func (d *Deduplicator) Close() error {
	return d.rdb.Close()
}

// AlreadySent returns true if key was recorded within the TTL window, or if
// Redis cannot be asked (fail closed).
func (d *Deduplicator) AlreadySent(ctx context.Context, key string) bool {
	exists, err := d.rdb.Exists(ctx, key).Result()
	if err != nil {
		return true
	}
	return exists > 0
}

// Record marks key as sent for the TTL window.
func (d *Deduplicator) Record(ctx context.Context, key string) {
	d.rdb.Set(ctx, key, "1", recordTTL)
}

// Clear removes a dedup key so the alert can fire again when the condition resets.
func (d *Deduplicator) Clear(ctx context.Context, key string) {
	d.rdb.Del(ctx, key) //nolint:errcheck
}

// ClearByPattern removes every dedup key matching the glob pattern, e.g.
// "insight:buy_window:*" to re-arm one signal across days.
func (d *Deduplicator) ClearByPattern(ctx context.Context, pattern string) {
	iter := d.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		d.rdb.Del(ctx, iter.Val())
	}
}
