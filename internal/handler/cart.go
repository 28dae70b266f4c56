package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/atalanta-ac/storefront/internal/domain/cart"
	"github.com/atalanta-ac/storefront/internal/domain/product"
)

type cartItemResponse struct {
	VariantID    string              `json:"variantId"`
	VariantKey   string              `json:"variantKey"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Path         string              `json:"path"`
	Price        float64             `json:"price"`
	Image        string              `json:"image"`
	Quantity     int                 `json:"quantity"`
	SelectedSize string              `json:"selectedSize"`
	StockBySize  []sizeStockResponse `json:"stockBySize"`
	Department   string              `json:"department"`
	Category     string              `json:"category"`
}

type cartResponse struct {
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"itemCount"`
	Subtotal  float64            `json:"subtotal"`
}

type addItemRequest struct {
	VariantID    string `json:"variantId"`
	SelectedSize string `json:"selectedSize"`
	Quantity     int    `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.openCart(r.Context(), h.session(w, r))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// addCartItem resolves the referenced variant from the catalog, builds the
// fully formed line item, and hands it to the cart container. The quantity is
// the full desired amount; repeating a (variant, size) pair replaces the
// line's quantity rather than adding to it.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.VariantID == "" {
		writeError(w, http.StatusBadRequest, "variantId required")
		return
	}
	if req.SelectedSize == "" {
		writeError(w, http.StatusBadRequest, "select a size before adding to cart")
		return
	}
	if req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	p, err := h.products.GetByID(r.Context(), req.VariantID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusUnprocessableEntity, "unknown product variant")
			return
		}
		writeInternal(w, r, err)
		return
	}

	if !hasSize(p, req.SelectedSize) {
		writeError(w, http.StatusUnprocessableEntity, "size not offered for this product")
		return
	}

	c, err := h.openCart(r.Context(), h.session(w, r))
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	if err := c.AddOrUpdate(r.Context(), lineItemFromProduct(p, req)); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	key := cart.Key{
		VariantID:    r.PathValue("variantID"),
		SelectedSize: r.URL.Query().Get("size"),
	}
	if key.SelectedSize == "" {
		writeError(w, http.StatusBadRequest, "size query parameter required")
		return
	}

	c, err := h.openCart(r.Context(), h.session(w, r))
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	// Removing an absent line is a no-op, not an error.
	if err := c.Remove(r.Context(), key); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.openCart(r.Context(), h.session(w, r))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if err := c.Clear(r.Context()); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func hasSize(p *product.Product, size string) bool {
	for _, s := range p.Sizes {
		if s.Size == size {
			return true
		}
	}
	return false
}

func lineItemFromProduct(p *product.Product, req addItemRequest) cart.LineItem {
	stock := make([]cart.SizeStock, len(p.Sizes))
	for i, s := range p.Sizes {
		stock[i] = cart.SizeStock{Size: s.Size, Quantity: s.Quantity}
	}
	return cart.LineItem{
		VariantID:    p.ID,
		VariantKey:   p.VariantKey,
		Name:         p.Name,
		Slug:         p.Slug,
		Path:         p.Path,
		Price:        p.Price,
		Image:        p.Image.Thumbnail,
		Quantity:     req.Quantity,
		SelectedSize: req.SelectedSize,
		StockBySize:  stock,
		Department:   p.Department,
		Category:     p.Category,
	}
}

func toCartResponse(c *cart.Container) cartResponse {
	totals := c.Totals()
	resp := cartResponse{
		Items:     make([]cartItemResponse, c.Len()),
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal.InexactFloat64(),
	}
	for i, it := range c.Items() {
		stock := make([]sizeStockResponse, len(it.StockBySize))
		for j, s := range it.StockBySize {
			stock[j] = sizeStockResponse{Size: s.Size, Quantity: s.Quantity}
		}
		resp.Items[i] = cartItemResponse{
			VariantID:    it.VariantID,
			VariantKey:   it.VariantKey,
			Name:         it.Name,
			Slug:         it.Slug,
			Path:         it.Path,
			Price:        it.Price.InexactFloat64(),
			Image:        it.Image,
			Quantity:     it.Quantity,
			SelectedSize: it.SelectedSize,
			StockBySize:  stock,
			Department:   it.Department,
			Category:     it.Category,
		}
	}
	return resp
}
