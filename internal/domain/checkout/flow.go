package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/atalanta-ac/storefront/internal/domain/cart"
)

// SessionLineItem is one normalized line of the session-creation request.
// Unit amounts are in minor currency units (cents).
type SessionLineItem struct {
	Name         string
	Image        string
	Slug         string
	SelectedSize string
	UnitAmount   int64
	Quantity     int
}

// OrderLineItem is one line of a retrieved order.
type OrderLineItem struct {
	Description string
	Quantity    int
	Price       decimal.Decimal
	Image       string
}

// Order is the collaborator's view of a completed (or in-flight) checkout
// session, shown on the confirmation screen.
type Order struct {
	Status          string
	CustomerName    string
	CustomerEmail   string
	ShippingName    string
	ShippingAddress ShippingAddress
	PlacedAt        int64
	LineItems       []OrderLineItem
	ShippingCost    decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal

	// ClearCart is the collaborator's out-of-band instruction to drop the
	// local cart: the single point where server and client state reconcile.
	ClearCart bool
}

// SessionClient is the remote payment collaborator boundary.
type SessionClient interface {
	CreateSession(ctx context.Context, lines []SessionLineItem, customer *ShippingAddress) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Order, error)
}

// Flow sequences the checkout steps and mediates with the payment
// collaborator. It owns no state of its own.
type Flow struct {
	client SessionClient
}

// NewFlow creates a Flow over the given collaborator client.
func NewFlow(client SessionClient) *Flow {
	return &Flow{client: client}
}

// InitiateSession normalizes the cart lines and asks the collaborator for a
// checkout session. An empty cart fails immediately without any remote call.
// A response missing either the session id or the client secret is treated as
// a failure; the caller routes the shopper back to the cart.
func (f *Flow) InitiateSession(ctx context.Context, items []cart.LineItem, customer *ShippingAddress) (*Session, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]SessionLineItem, len(items))
	for i, it := range items {
		lines[i] = SessionLineItem{
			Name:         it.Name,
			Image:        it.Image,
			Slug:         it.Slug,
			SelectedSize: it.SelectedSize,
			UnitAmount:   minorUnits(it.Price),
			Quantity:     it.Quantity,
		}
	}

	sess, err := f.client.CreateSession(ctx, lines, customer)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}
	if sess.ID == "" || sess.ClientSecret == "" {
		return nil, ErrIncompleteSession
	}
	return sess, nil
}

// ConfirmOrder fetches the session's order details for the confirmation view.
// When the response carries the clear-cart signal the local cart is cleared;
// otherwise the cart is left untouched.
func (f *Flow) ConfirmOrder(ctx context.Context, c *cart.Container, sessionID string) (*Order, error) {
	order, err := f.client.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "retrieve checkout session")
	}

	if order.ClearCart {
		if err := c.Clear(ctx); err != nil {
			return nil, errors.Wrap(err, "clear cart")
		}
	}
	return order, nil
}

// minorUnits converts a decimal currency amount to integer cents, rounding
// half away from zero.
func minorUnits(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}
