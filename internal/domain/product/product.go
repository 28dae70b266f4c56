package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. A product is a
// single variant (one shoe model, one shirt colourway); its sizes carry the
// per-size stock the storefront uses to bound cart quantities.
type Product struct {
	ID         string
	VariantKey string
	Name       string
	Slug       string
	Path       string
	Price      decimal.Decimal
	Department string
	Category   string
	Image      Image
	Sizes      []SizeStock
}

// SizeStock holds the available stock for one size of a product. Size order
// is meaningful for display and is preserved from the catalog.
type SizeStock struct {
	Size     string
	Quantity int
}

// Image holds responsive image URLs for a product.
type Image struct {
	Thumbnail string
	Mobile    string
	Tablet    string
	Desktop   string
}

// Filter narrows catalog listings. Zero values match everything.
type Filter struct {
	Department string
	Category   string
}

// Repository defines read and write operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Upsert(ctx context.Context, p *Product) error
}
