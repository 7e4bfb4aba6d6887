package cart

import (
	"context"
	"strings"
	"sync"

	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/metrics"
)

// Store holds one shopper's cart. Every mutation runs recompute and persist
// under the same lock, so snapshots are written in mutation order and readers
// never see aggregates that disagree with the items.
type Store struct {
	mu        sync.Mutex
	owner     string
	state     State
	snapshots SnapshotStore
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
}

// NewStore returns an empty cart for owner. A nil SnapshotStore keeps the
// cart in memory only.
func NewStore(owner string, snapshots SnapshotStore, logg *logger.Logger, m *metrics.CartMetrics) *Store {
	return &Store{
		owner:     owner,
		state:     computeState(nil),
		snapshots: snapshots,
		logg:      logg,
		metrics:   m,
	}
}

// Owner returns the key the cart is persisted under.
func (s *Store) Owner() string {
	return s.owner
}

// State returns a copy of the current cart.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeState(s.state.Items)
}

// Snapshot serializes the current items.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EncodeSnapshot(s.state.Items)
}

// AddItem appends product with qty, or increments the existing line.
func (s *Store) AddItem(ctx context.Context, product Product, qty int) (State, error) {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return State{}, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be at least 1, got %d", qty)
	}
	if product.UnitPrice.IsNegative() {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	return s.apply(ctx, metrics.CartOpAdd, func(items []Item) []Item {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity += qty
				return items
			}
		}
		return append(items, Item{
			ID:        id,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Image:     product.Image,
			Quantity:  qty,
		})
	}), nil
}

// RemoveItem drops the line with id. Unknown ids leave the cart unchanged.
func (s *Store) RemoveItem(ctx context.Context, id string) State {
	return s.apply(ctx, metrics.CartOpRemove, func(items []Item) []Item {
		return removeByID(items, id)
	})
}

// UpdateQuantity sets the absolute quantity of the line with id. A quantity
// of zero or less removes the line; unknown ids leave the cart unchanged.
func (s *Store) UpdateQuantity(ctx context.Context, id string, qty int) State {
	return s.apply(ctx, metrics.CartOpUpdateQuantity, func(items []Item) []Item {
		if qty <= 0 {
			return removeByID(items, id)
		}
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = qty
			}
		}
		return items
	})
}

// Clear empties the cart and overwrites the persisted snapshot.
func (s *Store) Clear(ctx context.Context) State {
	return s.apply(ctx, metrics.CartOpClear, func([]Item) []Item {
		return nil
	})
}

// ClearOrdered takes the lines of ordered out of the cart. A line still at
// the ordered unit price and holding at least the ordered quantity loses that
// quantity; anything added on top stays. Lines whose price changed or whose
// quantity dropped below the ordered one are left alone.
func (s *Store) ClearOrdered(ctx context.Context, ordered State) State {
	return s.apply(ctx, metrics.CartOpClear, func(items []Item) []Item {
		out := items[:0]
		for _, item := range items {
			prev, ok := ordered.Find(item.ID)
			if ok && prev.UnitPrice.Equal(item.UnitPrice) && item.Quantity >= prev.Quantity {
				item.Quantity -= prev.Quantity
			}
			if item.Quantity > 0 {
				out = append(out, item)
			}
		}
		return out
	})
}

// Restore replaces the cart with the decoded snapshot. A snapshot that fails
// to decode is reported and leaves the current cart untouched.
func (s *Store) Restore(ctx context.Context, raw []byte) error {
	items, err := DecodeSnapshot(raw)
	if err != nil {
		s.metrics.IncRestoreFailure()
		s.warn(ctx, "cart.restore.rejected", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = computeState(items)
	s.metrics.IncMutation(metrics.CartOpRestore)
	return nil
}

// apply runs fn over a private copy of the items, recomputes the aggregates
// and persists the result. The in-memory cart is updated even if the write
// fails.
func (s *Store) apply(ctx context.Context, op string, fn func([]Item) []Item) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := make([]Item, len(s.state.Items))
	copy(working, s.state.Items)
	s.state = computeState(fn(working))
	s.metrics.IncMutation(op)
	s.persist(ctx)

	return computeState(s.state.Items)
}

func (s *Store) persist(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	raw, err := EncodeSnapshot(s.state.Items)
	if err == nil {
		err = s.snapshots.Save(ctx, s.owner, raw)
	}
	if err != nil {
		s.metrics.IncPersistFailure()
		s.warn(ctx, "cart.persist.failed", err)
	}
}

func (s *Store) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithCartOwner(ctx, s.owner)
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}

func removeByID(items []Item, id string) []Item {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}
