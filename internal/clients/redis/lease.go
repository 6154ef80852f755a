package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mioplatform/mio-backend/internal/platform/envutil"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

// Lease is a coarse distributed lock: at most one advancement batch runs
// at a time across instances.
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
	Close() error
}

type lease struct {
	log   *logger.Logger
	rdb   *goredis.Client
	key   string
	token string
}

// releaseScript only deletes the key when the holder token still matches,
// so an expired lease taken over by another instance is never released
// out from under it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`

func NewLease(log *logger.Logger, token string) (Lease, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("lease token required")
	}

	addr := strings.TrimSpace(envutil.Str("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	key := strings.TrimSpace(envutil.Str("REDIS_ADVANCER_LEASE_KEY", "mio:advancer:lease"))

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &lease{
		log:   log.With("service", "RedisLease"),
		rdb:   rdb,
		key:   key,
		token: token,
	}, nil
}

func (l *lease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	if l == nil || l.rdb == nil {
		return false, fmt.Errorf("redis lease not initialized")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return l.rdb.SetNX(ctx, l.key, l.token, ttl).Result()
}

func (l *lease) Release(ctx context.Context) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Eval(ctx, releaseScript, []string{l.key}, l.token).Err()
}

func (l *lease) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
