// Package handler exposes the storefront's session-scoped REST surface:
// catalog browsing, the cart, and the checkout steps. Each request resolves
// its session from a cookie and opens the cart/checkout state for exactly
// that session.
package handler

import (
	"net/http"

	"github.com/atalanta-ac/storefront/internal/domain/cart"
	"github.com/atalanta-ac/storefront/internal/domain/checkout"
	"github.com/atalanta-ac/storefront/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the catalog.
	ImageBaseURL string
	// CookieName names the session cookie. Defaults to "storefront_session".
	CookieName string
	// CookieSecure marks the session cookie Secure; enable behind TLS.
	CookieSecure bool
}

// Handler serves the storefront API, delegating business logic to the domain
// containers and the checkout flow.
type Handler struct {
	products     product.Repository
	store        cart.Store
	flow         *checkout.Flow
	imageBaseURL string
	cookieName   string
	cookieSecure bool
}

// New constructs a Handler with the required dependencies.
func New(cfg Config, products product.Repository, store cart.Store, flow *checkout.Flow) *Handler {
	name := cfg.CookieName
	if name == "" {
		name = "storefront_session"
	}
	return &Handler{
		products:     products,
		store:        store,
		flow:         flow,
		imageBaseURL: cfg.ImageBaseURL,
		cookieName:   name,
		cookieSecure: cfg.CookieSecure,
	}
}

// Routes registers all API endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{slug}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{variantID}", h.removeCartItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)

	mux.HandleFunc("PUT /api/checkout/shipping", h.saveShipping)
	mux.HandleFunc("GET /api/checkout/shipping", h.getShipping)
	mux.HandleFunc("PUT /api/checkout/payment-method", h.savePaymentMethod)
	mux.HandleFunc("POST /api/checkout/session", h.createSession)
	mux.HandleFunc("GET /api/checkout/confirmation", h.confirmOrder)
}
