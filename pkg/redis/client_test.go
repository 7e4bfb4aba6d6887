package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/neumaticos/tirestore/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.CartSnapshotKey("user-1")
	if err := client.Set(ctx, key, `{"version":1,"items":[]}`, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	raw, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if raw != `{"version":1,"items":[]}` {
		t.Fatalf("unexpected snapshot %q", raw)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address is set")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options db=%d pool=%d", opts.DB, opts.PoolSize)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "tirestore:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "tirestore:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.AccessSessionKey("abc"); got != "tirestore:session:access:abc" {
		t.Fatalf("unexpected session key %s", got)
	}
	if got := client.CartSnapshotKey("user-1"); got != "tirestore:cart:user-1" {
		t.Fatalf("unexpected cart key %s", got)
	}
	if got := client.CartSnapshotKey(""); got != "tirestore:cart" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
