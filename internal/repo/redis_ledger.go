package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// claimKeyPrefix namespaces claim keys in a shared Redis.
const claimKeyPrefix = "fddgate:claim:"

// RedisLedger is a TokenLedger backed by SETNX keys with a TTL. It is the
// choice for multi-instance deployments where a local SQLite file cannot
// serialize requests.
type RedisLedger struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisLedger connects to addr. The connection is lazy; Ping to check it.
func NewRedisLedger(addr, password string, ttl time.Duration) *RedisLedger {
	return &RedisLedger{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
		TTL: ttl,
	}
}

func claimKey(token string) string { return claimKeyPrefix + token }

// Claim sets the claim key if absent.
func (l *RedisLedger) Claim(ctx context.Context, token string) error {
	ok, err := l.Client.SetNX(ctx, claimKey(token), time.Now().UTC().Format(time.RFC3339), l.TTL).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return ErrAlreadyClaimed
	}
	return nil
}

// Release deletes the claim key.
func (l *RedisLedger) Release(ctx context.Context, token string) error {
	if err := l.Client.Del(ctx, claimKey(token)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (l *RedisLedger) Close() error { return l.Client.Close() }
