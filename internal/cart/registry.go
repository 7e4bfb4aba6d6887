package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/metrics"
)

// Registry owns one Store per shopper. It is built once by the composition
// root and shared by every request. A store left untouched for idleTTL is
// dropped; the next Open rehydrates it from the snapshot store, picking up
// writes made by other processes in the meantime.
type Registry struct {
	mu        sync.Mutex
	stores    map[string]*registryEntry
	snapshots SnapshotStore
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
}

type registryEntry struct {
	once     sync.Once
	store    *Store
	err      error
	lastUsed time.Time
}

// NewRegistry builds a registry whose stores persist through snapshots. An
// idleTTL of zero keeps stores for the life of the process.
func NewRegistry(snapshots SnapshotStore, idleTTL time.Duration, logg *logger.Logger, m *metrics.CartMetrics) (*Registry, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if idleTTL < 0 {
		return nil, fmt.Errorf("idle ttl cannot be negative")
	}
	return &Registry{
		stores:    make(map[string]*registryEntry),
		snapshots: snapshots,
		idleTTL:   idleTTL,
		now:       time.Now,
		logg:      logg,
		metrics:   m,
	}, nil
}

// Open returns the owner's store, creating and rehydrating it on first use or
// after it went idle. A snapshot that cannot be read or decoded yields an
// empty cart rather than an error. Only a failure of the snapshot backend
// itself is returned, and the next Open retries it.
func (r *Registry) Open(ctx context.Context, owner string) (*Store, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, fmt.Errorf("cart owner required")
	}

	now := r.now()
	r.mu.Lock()
	r.sweepLocked(now)
	entry, ok := r.stores[owner]
	if !ok || r.idle(entry, now) {
		entry = &registryEntry{}
		r.stores[owner] = entry
	}
	entry.lastUsed = now
	r.mu.Unlock()

	entry.once.Do(func() {
		entry.store, entry.err = r.hydrate(ctx, owner)
	})
	if entry.err != nil {
		r.mu.Lock()
		if r.stores[owner] == entry {
			delete(r.stores, owner)
		}
		r.mu.Unlock()
		return nil, entry.err
	}
	return entry.store, nil
}

func (r *Registry) idle(entry *registryEntry, now time.Time) bool {
	return r.idleTTL > 0 && now.Sub(entry.lastUsed) >= r.idleTTL
}

// sweepLocked drops idle stores, at most once per idleTTL.
func (r *Registry) sweepLocked(now time.Time) {
	if r.idleTTL <= 0 || now.Sub(r.lastSweep) < r.idleTTL {
		return
	}
	r.lastSweep = now
	for owner, entry := range r.stores {
		if r.idle(entry, now) {
			delete(r.stores, owner)
		}
	}
}

// Len reports how many carts are loaded.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

func (r *Registry) hydrate(ctx context.Context, owner string) (*Store, error) {
	store := NewStore(owner, r.snapshots, r.logg, r.metrics)

	raw, err := r.snapshots.Load(ctx, owner)
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		return store, nil
	case err != nil:
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	// A rejected snapshot is logged and counted by Restore; the shopper
	// starts over with an empty cart.
	_ = store.Restore(ctx, raw)
	return store, nil
}
