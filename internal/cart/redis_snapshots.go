package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type snapshotBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartSnapshotKey(owner string) string
}

// RedisSnapshots keeps each owner's snapshot under its own redis key. The TTL
// is refreshed on every write, so only abandoned carts expire.
type RedisSnapshots struct {
	backend snapshotBackend
	ttl     time.Duration
}

// NewRedisSnapshots returns a SnapshotStore on top of the shared redis client.
func NewRedisSnapshots(backend snapshotBackend, ttl time.Duration) (*RedisSnapshots, error) {
	if backend == nil {
		return nil, fmt.Errorf("redis backend required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("snapshot ttl cannot be negative")
	}
	return &RedisSnapshots{backend: backend, ttl: ttl}, nil
}

// Load returns the raw snapshot or ErrSnapshotNotFound.
func (r *RedisSnapshots) Load(ctx context.Context, owner string) ([]byte, error) {
	raw, err := r.backend.Get(ctx, r.backend.CartSnapshotKey(owner))
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

// Save overwrites the owner's snapshot.
func (r *RedisSnapshots) Save(ctx context.Context, owner string, raw []byte) error {
	return r.backend.Set(ctx, r.backend.CartSnapshotKey(owner), string(raw), r.ttl)
}
