// catalog-ingest loads supplier catalog feeds into the products table.
//
// Feeds are gzip-compressed NDJSON files, one product record per line.
// Suppliers routinely ship overlapping assortments, so records are
// deduplicated by variant key across all feeds. Feeds are scanned
// concurrently and the first record to claim a key wins, so which feed
// supplies an overlapping variant is not deterministic between runs.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/atalanta-ac/storefront/internal/domain/product"
	"github.com/atalanta-ac/storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// feedRecord is one line of a supplier feed.
type feedRecord struct {
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

func (r *feedRecord) valid() bool {
	return r.ID != "" && r.VariantKey != "" && r.Slug != "" && r.Name != ""
}

func (r *feedRecord) toProduct() *product.Product {
	sizes := make([]product.SizeStock, len(r.CountInStock))
	for i, s := range r.CountInStock {
		sizes[i] = product.SizeStock{Size: s.Size, Quantity: s.Quantity}
	}
	return &product.Product{
		ID:         r.ID,
		VariantKey: r.VariantKey,
		Name:       r.Name,
		Slug:       r.Slug,
		Path:       r.Path,
		Price:      r.Price,
		Department: r.Department,
		Category:   r.Category,
		Image: product.Image{
			Thumbnail: r.Image.Thumbnail,
			Mobile:    r.Image.Mobile,
			Tablet:    r.Image.Tablet,
			Desktop:   r.Image.Desktop,
		},
		Sizes: sizes,
	}
}

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing feed files")
	flag.StringVar(&pattern, "pattern", "catalog-feed-*.gz", "glob pattern of feed files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, dataDir, pattern, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, pattern, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, pattern))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no feed files match %s in %s", pattern, dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return ingest(ctx, files, postgres.NewProductRepository(pool))
}

// dedup tracks variant keys already accepted. The bloom filter answers most
// "never seen" lookups without touching the exact set; on a bloom hit the
// exact set breaks ties so false positives never drop a record.
type dedup struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	seen   map[string]struct{}
}

func newDedup() *dedup {
	return &dedup{
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		seen:   make(map[string]struct{}),
	}
}

// claim reports whether key was unseen and marks it as taken.
func (d *dedup) claim(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.filter.TestString(key) {
		if _, ok := d.seen[key]; ok {
			return false
		}
	}
	d.filter.AddString(key)
	d.seen[key] = struct{}{}
	return true
}

// ingest streams all feeds concurrently into a single writer goroutine that
// upserts each variant key once, keeping whichever record claimed it first.
func ingest(ctx context.Context, files []string, repo product.Repository) error {
	dd := newDedup()
	records := make(chan *product.Product, 256)

	g, ctx := errgroup.WithContext(ctx)

	// Writer: single goroutine owns the repository calls.
	var written int
	g.Go(func() error {
		for p := range records {
			if err := repo.Upsert(ctx, p); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}
			written++
			if written%1000 == 0 {
				slog.Info("write progress", slog.Int("written", written))
			}
		}
		return nil
	})

	// Readers: one goroutine per feed file.
	readers, readCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		readers.Go(scanFeed(readCtx, i, f, dd, records))
	}

	readErr := readers.Wait()
	close(records)

	if writeErr := g.Wait(); writeErr != nil {
		return writeErr
	}
	if readErr != nil {
		return readErr
	}

	slog.Info("ingest complete", slog.Int("products", written))
	return nil
}

func scanFeed(ctx context.Context, idx int, path string, dd *dedup, out chan<- *product.Product) func() error {
	return func() error {
		var total, accepted, malformed uint64

		err := streamGzFile(ctx, path, func(line []byte) error {
			total++
			if total%progressEvery == 0 {
				slog.Info("scan progress",
					slog.Int("feed", idx+1),
					slog.Uint64("records", total),
				)
			}

			var rec feedRecord
			if err := json.Unmarshal(line, &rec); err != nil || !rec.valid() {
				malformed++
				return nil
			}
			if !dd.claim(rec.VariantKey) {
				return nil
			}

			accepted++
			select {
			case out <- rec.toProduct():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return errors.Wrapf(err, "scan feed %s", path)
		}

		slog.Info("feed complete",
			slog.Int("feed", idx+1),
			slog.Uint64("records", total),
			slog.Uint64("accepted", accepted),
			slog.Uint64("malformed", malformed),
		)
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
