package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"gomeasure/internal/core"
	"gomeasure/internal/types"
)

// RedisStore keeps fixed-window counters in Redis so that every API instance
// shares one budget per client. Each window is its own key and expires with
// the window. Expiry is relative so Redis and API clocks need not agree.
type RedisStore struct {
	client *redis.Client
	prefix string
	clock  types.Clock
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string, clock types.Clock) *RedisStore {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &RedisStore{client: client, prefix: prefix, clock: clock}
}

// OpenRedis parses a redis:// URL and returns a client.
func OpenRedis(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// IncrementAndCheck counts one request against key in the current window
// with a single INCR + PEXPIRE round trip.
func (s *RedisStore) IncrementAndCheck(ctx context.Context, key string, limit int, win time.Duration) (core.RateLimitResult, error) {
	now := s.clock.Now()
	start := windowStart(now, win)
	resetAt := start.Add(win)
	redisKey := s.key(key, start)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, resetAt.Sub(now))
		return nil
	})
	if err != nil {
		return core.RateLimitResult{}, fmt.Errorf("rate limit incr %s: %w", redisKey, err)
	}

	return result(int(incr.Val()), limit, resetAt), nil
}

func (s *RedisStore) key(client string, start time.Time) string {
	return s.prefix + "rl:" + client + ":" + strconv.FormatInt(start.Unix(), 10)
}

// Name implements core.HealthProbe.
func (s *RedisStore) Name() string { return "redis" }

// Check implements core.HealthProbe with a PING.
func (s *RedisStore) Check(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
