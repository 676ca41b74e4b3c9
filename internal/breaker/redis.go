package breaker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKey = "jobmatch:ai:failed_at"

// Redis shares the failure state between replicas. The key expires together
// with the cooldown. Any Redis error is logged once and reads as "not in
// cooldown", so an unhealthy Redis never blocks the AI path.
type Redis struct {
	client   redis.Cmdable
	key      string
	cooldown time.Duration
	logger   *zap.Logger

	warnedUnavailable atomic.Bool
}

func NewRedis(client redis.Cmdable, cooldown time.Duration, logger *zap.Logger) *Redis {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, key: defaultKey, cooldown: cooldown, logger: logger}
}

func (r *Redis) Cooldown() time.Duration {
	return r.cooldown
}

// Connect parses url, pings the server and returns the client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func (r *Redis) InCooldown(ctx context.Context, now time.Time) bool {
	raw, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		r.warnOnce(err)
		return false
	}

	at, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.logger.Warn("discarding malformed failure timestamp", zap.String("value", raw))
		r.Reset(ctx)
		return false
	}

	return now.Sub(time.Unix(0, at)) < r.cooldown
}

func (r *Redis) RecordFailure(ctx context.Context, at time.Time) {
	value := strconv.FormatInt(at.UnixNano(), 10)
	if err := r.client.Set(ctx, r.key, value, r.cooldown).Err(); err != nil {
		r.warnOnce(err)
	}
}

func (r *Redis) Reset(ctx context.Context) {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.warnOnce(err)
	}
}

func (r *Redis) warnOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("redis unavailable, failure state degraded to open", zap.Error(err))
	}
}
