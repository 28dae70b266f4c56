package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/atalanta-ac/storefront/internal/domain/product"
)

type sizeStockResponse struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type productResponse struct {
	ID          string              `json:"id"`
	VariantKey  string              `json:"variantKey"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Path        string              `json:"path"`
	Price       float64             `json:"price"`
	Department  string              `json:"department"`
	Category    string              `json:"category"`
	Image       imageResponse       `json:"image"`
	StockBySize []sizeStockResponse `json:"stockBySize"`
}

type imageResponse struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Tablet    string `json:"tablet"`
	Desktop   string `json:"desktop"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f := product.Filter{
		Department: r.URL.Query().Get("department"),
		Category:   r.URL.Query().Get("category"),
	}

	products, err := h.products.List(r.Context(), f)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = h.toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	p, err := h.products.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternal(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toProductResponse(*p))
}

func (h *Handler) toProductResponse(p product.Product) productResponse {
	resp := productResponse{
		ID:         p.ID,
		VariantKey: p.VariantKey,
		Name:       p.Name,
		Slug:       p.Slug,
		Path:       p.Path,
		Price:      p.Price.InexactFloat64(),
		Department: p.Department,
		Category:   p.Category,
		Image: imageResponse{
			Thumbnail: h.imageURL(p.Image.Thumbnail),
			Mobile:    h.imageURL(p.Image.Mobile),
			Tablet:    h.imageURL(p.Image.Tablet),
			Desktop:   h.imageURL(p.Image.Desktop),
		},
		StockBySize: make([]sizeStockResponse, len(p.Sizes)),
	}
	for i, s := range p.Sizes {
		resp.StockBySize[i] = sizeStockResponse{Size: s.Size, Quantity: s.Quantity}
	}
	return resp
}

// imageURL prepends the configured base URL to relative image paths.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
