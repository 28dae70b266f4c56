package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atalanta-ac/storefront/internal/domain/product"
)

const (
	productColumns = `id, variant_key, name, slug, path, price, department, category,
		image_thumbnail, image_mobile, image_tablet, image_desktop`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR department = $1) AND ($2 = '' OR category = $2)
		ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductBySlugSQL = `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	getSizesSQL = `SELECT product_id, size, quantity FROM product_sizes
		WHERE product_id = ANY($1) ORDER BY product_id, position`

	upsertProductSQL = `INSERT INTO products (id, variant_key, name, slug, path, price,
			department, category, image_thumbnail, image_mobile, image_tablet, image_desktop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			variant_key = EXCLUDED.variant_key,
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			path = EXCLUDED.path,
			price = EXCLUDED.price,
			department = EXCLUDED.department,
			category = EXCLUDED.category,
			image_thumbnail = EXCLUDED.image_thumbnail,
			image_mobile = EXCLUDED.image_mobile,
			image_tablet = EXCLUDED.image_tablet,
			image_desktop = EXCLUDED.image_desktop,
			updated_at = now()`

	deleteSizesSQL = `DELETE FROM product_sizes WHERE product_id = $1`

	insertSizeSQL = `INSERT INTO product_sizes (product_id, size, quantity, position)
		VALUES ($1, $2, $3, $4)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog products matching the filter, ordered by ID, with
// their per-size stock attached in display order.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, f.Department, f.Category)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	if err := r.attachSizes(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	return r.getOne(ctx, getProductByIDSQL, id)
}

// GetBySlug returns a single product by its URL slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.getOne(ctx, getProductBySlugSQL, slug)
}

func (r *ProductRepository) getOne(ctx context.Context, query, arg string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", arg)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", arg)
	}

	list := []product.Product{p}
	if err := r.attachSizes(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// Upsert writes the product row and replaces its size rows in one
// transaction.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, upsertProductSQL,
		p.ID, p.VariantKey, p.Name, p.Slug, p.Path, p.Price,
		p.Department, p.Category,
		p.Image.Thumbnail, p.Image.Mobile, p.Image.Tablet, p.Image.Desktop,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}

	if _, err := tx.Exec(ctx, deleteSizesSQL, p.ID); err != nil {
		return errors.Wrapf(err, "clear sizes for %q", p.ID)
	}
	for i, s := range p.Sizes {
		if _, err := tx.Exec(ctx, insertSizeSQL, p.ID, s.Size, s.Quantity, i); err != nil {
			return errors.Wrapf(err, "insert size %q for %q", s.Size, p.ID)
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit")
}

// attachSizes batch-loads the size rows for the given products.
func (r *ProductRepository) attachSizes(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		byID[products[i].ID] = &products[i]
	}

	rows, err := r.pool.Query(ctx, getSizesSQL, ids)
	if err != nil {
		return errors.Wrap(err, "load sizes")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			s         product.SizeStock
		)
		if err := rows.Scan(&productID, &s.Size, &s.Quantity); err != nil {
			return errors.Wrap(err, "scan size")
		}
		if p, ok := byID[productID]; ok {
			p.Sizes = append(p.Sizes, s)
		}
	}
	return errors.Wrap(rows.Err(), "load sizes")
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.VariantKey, &p.Name, &p.Slug, &p.Path, &price,
		&p.Department, &p.Category,
		&p.Image.Thumbnail, &p.Image.Mobile, &p.Image.Tablet, &p.Image.Desktop,
	)
	p.Price = price
	return p, err
}
