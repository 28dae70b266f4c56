package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Container owns the authoritative line-item list for one session and keeps
// the persistent store synchronized. It is constructed per request from the
// session key rather than held as a process-wide singleton, so tests can make
// isolated instances; single-writer semantics come from the per-session scope.
type Container struct {
	store Store
	key   string
	items []LineItem
}

// Open loads the persisted cart for the given storage key. A missing or empty
// key yields an empty cart. A payload that fails to decode is discarded
// rather than poisoning the session.
func Open(ctx context.Context, store Store, key string) (*Container, error) {
	c := &Container{store: store, key: key}

	payload, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(ErrStore, err.Error())
	}
	if !ok {
		return c, nil
	}

	items, err := Decode(payload)
	if err != nil {
		// Unreadable carts start over; the alternative is a session that can
		// never check out.
		return c, nil
	}
	c.items = items
	return c, nil
}

// Items returns the lines in insertion order. The slice is shared; callers
// must not mutate it.
func (c *Container) Items() []LineItem {
	return c.items
}

// Len returns the number of distinct lines.
func (c *Container) Len() int { return len(c.items) }

// Empty reports whether the cart has no lines.
func (c *Container) Empty() bool { return len(c.items) == 0 }

// Totals computes the derived item count and subtotal.
func (c *Container) Totals() Totals { return ComputeTotals(c.items) }

// AddOrUpdate inserts the item or, when a line with the same
// (variant, selected size) already exists, replaces that line wholesale. The
// incoming quantity is the full desired quantity, not a delta. A quantity of
// zero or less removes the line instead of retaining it.
func (c *Container) AddOrUpdate(ctx context.Context, item LineItem) error {
	if item.Quantity <= 0 {
		return c.Remove(ctx, item.key())
	}

	replaced := false
	for i := range c.items {
		if c.items[i].key() == item.key() {
			c.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		c.items = append(c.items, item)
	}

	return c.persist(ctx)
}

// Remove deletes the line identified by key. Removing an absent line is a
// no-op, but the (unchanged) list is still persisted.
func (c *Container) Remove(ctx context.Context, key Key) error {
	kept := c.items[:0]
	for _, it := range c.items {
		if it.key() != key {
			kept = append(kept, it)
		}
	}
	c.items = kept
	return c.persist(ctx)
}

// Clear empties the cart and deletes the storage key entirely, so an emptied
// cart and a never-used session read back identically.
func (c *Container) Clear(ctx context.Context) error {
	c.items = nil
	if err := c.store.Delete(ctx, c.key); err != nil {
		return errors.Wrap(ErrStore, err.Error())
	}
	return nil
}

func (c *Container) persist(ctx context.Context) error {
	if err := c.store.Set(ctx, c.key, Encode(c.items)); err != nil {
		return errors.Wrap(ErrStore, err.Error())
	}
	return nil
}
