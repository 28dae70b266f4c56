package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrStore wraps failures of the underlying session store. The in-memory cart
// stays correct for the current request even when persistence fails.
var ErrStore = errors.New("cart store")

// LineItem is one entry in the cart: a specific product variant in a specific
// size, with the full desired quantity. Two items are the same line if and
// only if both VariantID and SelectedSize match.
type LineItem struct {
	VariantID    string
	VariantKey   string
	Name         string
	Slug         string
	Path         string
	Price        decimal.Decimal
	Image        string
	Quantity     int
	SelectedSize string
	StockBySize  []SizeStock
	Department   string
	Category     string
}

// SizeStock mirrors the per-size availability carried on a line item. It is
// informational for the UI; the cart itself does not enforce stock bounds.
type SizeStock struct {
	Size     string
	Quantity int
}

// Key identifies a cart line.
type Key struct {
	VariantID    string
	SelectedSize string
}

// key returns the identity of a line item.
func (it LineItem) key() Key {
	return Key{VariantID: it.VariantID, SelectedSize: it.SelectedSize}
}

// Totals holds the derived values of a cart. They are computed on read and
// never stored.
type Totals struct {
	ItemCount int
	Subtotal  decimal.Decimal
}

// ComputeTotals sums quantities and quantity×price across the given lines.
// An empty slice yields {0, 0}.
func ComputeTotals(items []LineItem) Totals {
	t := Totals{Subtotal: decimal.Zero}
	for _, it := range items {
		t.ItemCount += it.Quantity
		t.Subtotal = t.Subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return t
}

// Store is the string-keyed persistent store the cart is mirrored into. It is
// the cart's sole durable representation; there is no server-side order state
// behind it.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
