package cart

import (
	"github.com/shopspring/decimal"
)

// Product is the catalog reference handed to AddItem. Its name, price and
// image are copied into the cart line and never re-synced afterwards.
type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Image     string
}

// Item is one cart line.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is unit price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// State is an immutable view of a cart. ItemCount and Total are always the
// live sums over Items.
type State struct {
	Items     []Item          `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}

// IsEmpty reports whether the cart has no lines.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the line with the given id.
func (s State) Find(id string) (Item, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// computeState derives the aggregates from items. It is the only place
// ItemCount and Total are produced.
func computeState(items []Item) State {
	out := make([]Item, len(items))
	copy(out, items)

	count := 0
	total := decimal.Zero
	for _, item := range out {
		count += item.Quantity
		total = total.Add(item.Subtotal())
	}
	return State{Items: out, ItemCount: count, Total: total}
}
