package checkout

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"

	"github.com/atalanta-ac/storefront/internal/domain/cart"
)

// State holds the two pieces of checkout context gathered on separate
// screens, mirrored into the session store under fixed per-session keys. Like
// the cart container it is constructed per request, not shared.
type State struct {
	store      cart.Store
	addressKey string
	methodKey  string
}

// NewState binds a State to one session's storage keys.
func NewState(store cart.Store, sessionID string) *State {
	return &State{
		store:      store,
		addressKey: "shipping:" + sessionID,
		methodKey:  "payment-method:" + sessionID,
	}
}

// SaveShippingAddress overwrites the stored address wholesale. Field
// validation is the caller's responsibility; this layer assumes valid input.
func (s *State) SaveShippingAddress(ctx context.Context, addr ShippingAddress) error {
	raw, err := json.Marshal(addr)
	if err != nil {
		return errors.Wrap(err, "marshal shipping address")
	}
	if err := s.store.Set(ctx, s.addressKey, string(raw)); err != nil {
		return errors.Wrap(err, "persist shipping address")
	}
	return nil
}

// ShippingAddress returns the stored address, or ok=false when the shipping
// step has not been completed.
func (s *State) ShippingAddress(ctx context.Context) (ShippingAddress, bool, error) {
	var addr ShippingAddress

	raw, ok, err := s.store.Get(ctx, s.addressKey)
	if err != nil {
		return addr, false, errors.Wrap(err, "load shipping address")
	}
	if !ok {
		return addr, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		return addr, false, errors.Wrap(err, "decode shipping address")
	}
	return addr, addr.Complete(), nil
}

// SavePaymentMethod overwrites the stored method identifier.
func (s *State) SavePaymentMethod(ctx context.Context, m Method) error {
	if err := s.store.Set(ctx, s.methodKey, string(m)); err != nil {
		return errors.Wrap(err, "persist payment method")
	}
	return nil
}

// PaymentMethod returns the stored method, or ok=false when none was chosen.
func (s *State) PaymentMethod(ctx context.Context) (Method, bool, error) {
	raw, ok, err := s.store.Get(ctx, s.methodKey)
	if err != nil {
		return "", false, errors.Wrap(err, "load payment method")
	}
	if !ok || raw == "" {
		return "", false, nil
	}
	return Method(raw), true, nil
}

// Snapshot assembles the guard input for the session.
func (s *State) Snapshot(ctx context.Context, c *cart.Container) (Snapshot, error) {
	_, shippingOK, err := s.ShippingAddress(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	_, methodOK, err := s.PaymentMethod(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		CartEmpty:       c.Empty(),
		ShippingPresent: shippingOK,
		MethodSelected:  methodOK,
	}, nil
}
