package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig is the subset of client options the gateway exposes.
// Zero values fall back to conservative defaults.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	PoolSize int
	// Timeout bounds dial, read and write individually.
	Timeout     time.Duration
	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Second
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = c.Timeout
	}
	return c
}

// OpenRedis builds a client and fails unless the server answers PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if cfg.DB < 0 {
		return nil, fmt.Errorf("redis db must be >= 0, got %d", cfg.DB)
	}
	cfg = cfg.withDefaults()

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Slot counters: INCR to take, DECR to give back. The TTL is refreshed on
// every successful take so a crashed holder cannot pin the counter forever.
var (
	slotTakeScript = redis.NewScript(`
local held = redis.call('INCR', KEYS[1])
if held > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

	slotGiveScript = redis.NewScript(`
if redis.call('DECR', KEYS[1]) <= 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)
)

// AcquireConcurrencyCap takes one of limit slots under key. It reports false
// when all slots are held.
func AcquireConcurrencyCap(ctx context.Context, rdb redis.Scripter, key string, limit int, ttl time.Duration) (bool, error) {
	switch {
	case rdb == nil:
		return false, errors.New("redis client is nil")
	case key == "":
		return false, errors.New("slot key is required")
	case limit <= 0:
		return false, fmt.Errorf("slot limit must be > 0, got %d", limit)
	case ttl <= 0:
		return false, fmt.Errorf("slot ttl must be > 0, got %s", ttl)
	}

	taken, err := slotTakeScript.Run(ctx, rdb, []string{key}, limit, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("take slot %s: %w", key, err)
	}
	return taken == 1, nil
}

// ReleaseConcurrencyCap gives back a slot taken by AcquireConcurrencyCap.
func ReleaseConcurrencyCap(ctx context.Context, rdb redis.Scripter, key string) error {
	if rdb == nil {
		return errors.New("redis client is nil")
	}
	if key == "" {
		return errors.New("slot key is required")
	}
	if err := slotGiveScript.Run(ctx, rdb, []string{key}).Err(); err != nil {
		return fmt.Errorf("release slot %s: %w", key, err)
	}
	return nil
}

// ConcurrencySlots binds a Redis client, limit and TTL into an
// acquire/release pair usable by callers that only know a key.
type ConcurrencySlots struct {
	Client redis.Scripter
	Limit  int
	TTL    time.Duration
}

func (s ConcurrencySlots) Acquire(ctx context.Context, key string) (bool, error) {
	return AcquireConcurrencyCap(ctx, s.Client, key, s.Limit, s.TTL)
}

func (s ConcurrencySlots) Release(ctx context.Context, key string) error {
	return ReleaseConcurrencyCap(ctx, s.Client, key)
}
