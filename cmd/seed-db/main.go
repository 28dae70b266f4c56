package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/atalanta-ac/storefront/internal/domain/product"
	"github.com/atalanta-ac/storefront/internal/storage/postgres"
)

type productJSON struct {
	ID         string          `json:"_id"`
	VariantKey string          `json:"_key"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	Path       string          `json:"path"`
	Price      decimal.Decimal `json:"price"`
	Department string          `json:"department"`
	Category   string          `json:"category"`
	Image      struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Tablet    string `json:"tablet"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
	CountInStock []struct {
		Size     string `json:"size"`
		Quantity int    `json:"quantity"`
	} `json:"countInStock"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedProducts(ctx, postgres.NewProductRepository(pool), productsFile)
}

func seedProducts(ctx context.Context, repo product.Repository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		sizes := make([]product.SizeStock, len(p.CountInStock))
		for i, s := range p.CountInStock {
			sizes[i] = product.SizeStock{Size: s.Size, Quantity: s.Quantity}
		}

		if err := repo.Upsert(ctx, &product.Product{
			ID:         p.ID,
			VariantKey: p.VariantKey,
			Name:       p.Name,
			Slug:       p.Slug,
			Path:       p.Path,
			Price:      p.Price,
			Department: p.Department,
			Category:   p.Category,
			Image: product.Image{
				Thumbnail: p.Image.Thumbnail,
				Mobile:    p.Image.Mobile,
				Tablet:    p.Image.Tablet,
				Desktop:   p.Image.Desktop,
			},
			Sizes: sizes,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("slug", p.Slug))
	}

	return nil
}
