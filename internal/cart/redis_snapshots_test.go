package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) CartSnapshotKey(owner string) string {
	return "tirestore:cart:" + owner
}

func TestRedisSnapshotsSaveLoad(t *testing.T) {
	ctx := context.Background()
	backend := newFakeRedis()
	snaps, err := NewRedisSnapshots(backend, 24*time.Hour)
	require.NoError(t, err)

	_, err = snaps.Load(ctx, "user-1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, snaps.Save(ctx, "user-1", []byte(`{"version":1,"items":[]}`)))
	assert.Equal(t, 24*time.Hour, backend.ttls["tirestore:cart:user-1"])

	raw, err := snaps.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"items":[]}`, string(raw))
}

func TestRedisSnapshotsPropagatesBackendErrors(t *testing.T) {
	backend := newFakeRedis()
	backend.getErr = errors.New("i/o timeout")
	snaps, err := NewRedisSnapshots(backend, time.Hour)
	require.NoError(t, err)

	_, err = snaps.Load(context.Background(), "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRegistryOverRedisSnapshots(t *testing.T) {
	ctx := context.Background()
	backend := newFakeRedis()
	snaps, err := NewRedisSnapshots(backend, time.Hour)
	require.NoError(t, err)

	first, err := NewRegistry(snaps, 0, nil, nil)
	require.NoError(t, err)
	store, err := first.Open(ctx, "user-1")
	require.NoError(t, err)
	_, err = store.AddItem(ctx, product("A", 100), 2)
	require.NoError(t, err)

	// a fresh process sees the persisted cart
	second, err := NewRegistry(snaps, 0, nil, nil)
	require.NoError(t, err)
	restored, err := second.Open(ctx, "user-1")
	require.NoError(t, err)
	sameItems(t, store.State().Items, restored.State().Items)
}

func TestNewRedisSnapshotsValidation(t *testing.T) {
	_, err := NewRedisSnapshots(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewRedisSnapshots(newFakeRedis(), -time.Second)
	assert.Error(t, err)
}
