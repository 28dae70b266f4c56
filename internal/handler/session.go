package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/atalanta-ac/storefront/internal/domain/cart"
	"github.com/atalanta-ac/storefront/internal/domain/checkout"
)

// session resolves the shopper's session id from the request cookie, minting
// a fresh one when absent or unparseable. The cookie is the only client-side
// state; everything it points at lives in the session store.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(h.cookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60, // match the store TTL
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// openCart loads the session's cart container.
func (h *Handler) openCart(ctx context.Context, sessionID string) (*cart.Container, error) {
	return cart.Open(ctx, h.store, "cart:"+sessionID)
}

// openState binds the session's shipping/payment state container.
func (h *Handler) openState(sessionID string) *checkout.State {
	return checkout.NewState(h.store, sessionID)
}
