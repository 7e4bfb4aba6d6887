package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SnapshotVersion is written into every encoded snapshot.
const SnapshotVersion = 1

// ErrSnapshotNotFound is returned by a SnapshotStore when the owner has no
// persisted cart.
var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// ErrInvalidSnapshot wraps every decode failure.
var ErrInvalidSnapshot = errors.New("invalid cart snapshot")

// SnapshotStore persists serialized carts keyed by owner.
type SnapshotStore interface {
	Load(ctx context.Context, owner string) ([]byte, error)
	Save(ctx context.Context, owner string, raw []byte) error
}

type snapshotEnvelope struct {
	Version int            `json:"version"`
	Items   []snapshotLine `json:"items"`
}

// snapshotLine is the written line layout. Prices are plain JSON numbers.
type snapshotLine struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	UnitPrice json.Number `json:"unitPrice"`
	Image     string      `json:"image"`
	Quantity  int         `json:"quantity"`
}

// storedLine is the read layout. Carts written by the previous browser
// storefront use spanish keys (nombre, precio, imagen); both spellings are
// accepted and the english one wins when both are present.
type storedLine struct {
	ID        string           `json:"id"`
	Name      *string          `json:"name"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	Image     *string          `json:"image"`
	Quantity  int              `json:"quantity"`

	Nombre *string          `json:"nombre"`
	Precio *decimal.Decimal `json:"precio"`
	Imagen *string          `json:"imagen"`
}

func (l storedLine) item(idx int) (Item, error) {
	name := firstPresent(l.Name, l.Nombre)
	if name == nil {
		return Item{}, fmt.Errorf("%w: item %d has no name", ErrInvalidSnapshot, idx)
	}
	price := l.UnitPrice
	if price == nil {
		price = l.Precio
	}
	if price == nil {
		return Item{}, fmt.Errorf("%w: item %d has no unit price", ErrInvalidSnapshot, idx)
	}
	item := Item{ID: l.ID, Name: *name, UnitPrice: *price, Quantity: l.Quantity}
	if image := firstPresent(l.Image, l.Imagen); image != nil {
		item.Image = *image
	}
	return item, nil
}

func firstPresent(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// EncodeSnapshot serializes items into the versioned snapshot format.
func EncodeSnapshot(items []Item) ([]byte, error) {
	lines := make([]snapshotLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, snapshotLine{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: json.Number(item.UnitPrice.String()),
			Image:     item.Image,
			Quantity:  item.Quantity,
		})
	}
	raw, err := json.Marshal(snapshotEnvelope{Version: SnapshotVersion, Items: lines})
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return raw, nil
}

// DecodeSnapshot parses a persisted snapshot, either the versioned envelope or
// a bare array of lines. Input is untrusted: the whole snapshot is rejected
// when any line is malformed or lacks a name or unit price.
func DecodeSnapshot(raw []byte) ([]Item, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidSnapshot)
	}

	var lines []storedLine
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &lines); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	case '{':
		var env struct {
			Version int          `json:"version"`
			Items   []storedLine `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		if env.Version != SnapshotVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, env.Version)
		}
		lines = env.Items
	default:
		return nil, fmt.Errorf("%w: expected object or array", ErrInvalidSnapshot)
	}

	items := make([]Item, 0, len(lines))
	for idx, line := range lines {
		item, err := line.item(idx)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

func validateItems(items []Item) error {
	seen := make(map[string]struct{}, len(items))
	for idx, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return fmt.Errorf("%w: item %d has no id", ErrInvalidSnapshot, idx)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %s has quantity %d", ErrInvalidSnapshot, id, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %s has negative price", ErrInvalidSnapshot, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate item %s", ErrInvalidSnapshot, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
