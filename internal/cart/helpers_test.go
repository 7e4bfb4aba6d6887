package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSnapshots struct {
	mu      sync.Mutex
	data    map[string][]byte
	writes  int
	saveErr error
	loadErr error
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: make(map[string][]byte)}
}

func (m *memSnapshots) Load(ctx context.Context, owner string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	raw, ok := m.data[owner]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return raw, nil
}

func (m *memSnapshots) Save(ctx context.Context, owner string, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[owner] = append([]byte(nil), raw...)
	return nil
}

func (m *memSnapshots) saved(t *testing.T, owner string) []Item {
	t.Helper()
	m.mu.Lock()
	raw, ok := m.data[owner]
	m.mu.Unlock()
	require.True(t, ok, "no snapshot for %s", owner)
	items, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	return items
}

var errBackendDown = errors.New("backend down")

func product(id string, price int64) Product {
	return Product{ID: id, Name: "Tire " + id, UnitPrice: decimal.NewFromInt(price), Image: "https://img.example/" + id + ".jpg"}
}

func assertTotals(t *testing.T, state State, count int, total int64) {
	t.Helper()
	assert.Equal(t, count, state.ItemCount, "item count")
	assert.True(t, decimal.NewFromInt(total).Equal(state.Total), "expected total %d, got %s", total, state.Total)
}

// assertConsistent checks that the aggregates match the items and that ids are unique.
func assertConsistent(t *testing.T, state State) {
	t.Helper()
	seen := map[string]bool{}
	count := 0
	total := decimal.Zero
	for _, item := range state.Items {
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
		assert.GreaterOrEqual(t, item.Quantity, 1)
		count += item.Quantity
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	assert.Equal(t, count, state.ItemCount)
	assert.True(t, total.Equal(state.Total), "total %s != live sum %s", state.Total, total)
}

func sameItems(t *testing.T, want, got []Item) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Image, got[i].Image)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice), "price of %s: %s != %s", want[i].ID, want[i].UnitPrice, got[i].UnitPrice)
	}
}
