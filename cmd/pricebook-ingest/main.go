// Command pricebook-ingest imports supplier price books into the catalog.
//
// Supplier feeds are large gzip-compressed files of "SKU,price" lines, one
// feed per supplier. A price update is only trusted when the SKU appears in
// at least two feeds, which filters out single-supplier typos and stale rows.
// The files are far too large to hold in memory, so the ingest runs in two
// streaming passes: pass 1 builds one bloom filter per feed, pass 2
// re-streams each feed and keeps SKUs that hit another feed's filter.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/trademill/wholesale-api/internal/repository"
)

const (
	bloomCapacity = 50_000_000
	bloomFPR      = 0.001
	progressEvery = 5_000_000
	minSKULen     = 5
	maxSKULen     = 32
)

// priceRow is one parsed feed line.
type priceRow struct {
	sku   string
	price decimal.Decimal
}

// fileResult holds candidate SKUs found in a single feed during pass 2.
// The mask records which feeds quoted the SKU; prices keeps the lowest
// quote seen in this feed.
type fileResult struct {
	masks  map[string]uint
	prices map[string]decimal.Decimal
}

func main() {
	var (
		dataDir     string
		numFiles    int
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing pricebookN.gz files")
	flag.IntVar(&numFiles, "files", 3, "number of supplier feed files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if numFiles < 2 {
		slog.Error("at least two supplier feeds are required for cross-validation")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, numFiles, databaseURL); err != nil {
		slog.Error("price book ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("price book ingest completed successfully")
}

func run(ctx context.Context, dataDir string, numFiles int, databaseURL string) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("pricebook%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: build one bloom filter per feed, concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", numFiles))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: collect SKUs quoted by two or more suppliers.
	slog.Info("pass 2: cross-validating SKUs")

	updates, err := findValidUpdates(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find valid updates")
	}

	slog.Info("validated price updates", slog.Int("count", len(updates)))

	if len(updates) == 0 {
		slog.Info("no price updates to apply")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := applyUpdates(ctx, repository.NewProductRepository(pool), updates); err != nil {
		return errors.Wrap(err, "apply price updates")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per feed, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(row priceRow) {
			filter.AddString(row.sku)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.Int("file", idx+1),
					slog.Uint64("rows", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_rows", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findValidUpdates re-streams each feed and checks SKUs against OTHER feeds'
// bloom filters. A SKU is trusted when it appears in two or more feeds; the
// lowest quoted price wins.
func findValidUpdates(ctx context.Context, files []string, filters []*bloom.BloomFilter) (map[string]decimal.Decimal, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge feed-presence bitmasks and quotes from all feeds.
	masks := make(map[string]uint)
	quotes := make(map[string]decimal.Decimal)
	for _, r := range results {
		for sku, mask := range r.masks {
			masks[sku] |= mask
		}
		for sku, price := range r.prices {
			if best, ok := quotes[sku]; !ok || price.LessThan(best) {
				quotes[sku] = price
			}
		}
	}

	updates := make(map[string]decimal.Decimal)
	for sku, mask := range masks {
		if bits.OnesCount(mask) >= 2 {
			updates[sku] = quotes[sku]
		}
	}

	return updates, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		masks := make(map[string]uint)
		prices := make(map[string]decimal.Decimal)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(row priceRow) {
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("rows", count),
				)
			}

			// Check whether any OTHER feed also quotes this SKU.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(row.sku) {
					masks[row.sku] |= fileBit
					if best, ok := prices[row.sku]; !ok || row.price.LessThan(best) {
						prices[row.sku] = row.price
					}
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_rows", count),
			slog.Int("candidates", len(masks)),
		)

		results[idx] = fileResult{masks: masks, prices: prices}
		return nil
	}
}

// streamGzFile opens a gzip-compressed feed and calls fn for each parseable
// "SKU,price" line. Malformed lines are skipped.
func streamGzFile(ctx context.Context, path string, fn func(row priceRow)) error {
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
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if row, ok := parseLine(scanner.Text()); ok {
			fn(row)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

func parseLine(line string) (priceRow, bool) {
	sku, rawPrice, ok := strings.Cut(line, ",")
	if !ok {
		return priceRow{}, false
	}
	sku = strings.TrimSpace(sku)
	if len(sku) < minSKULen || len(sku) > maxSKULen {
		return priceRow{}, false
	}

	price, err := decimal.NewFromString(strings.TrimSpace(rawPrice))
	if err != nil || price.IsNegative() {
		return priceRow{}, false
	}

	return priceRow{sku: sku, price: price}, true
}

// applyUpdates writes validated prices to the catalog. SKUs not present in
// the catalog are counted and skipped.
func applyUpdates(ctx context.Context, products *repository.ProductRepository, updates map[string]decimal.Decimal) error {
	slog.Info("applying price updates", slog.Int("count", len(updates)))

	var applied, skipped, i int
	for sku, price := range updates {
		updated, err := products.UpsertPrice(ctx, sku, price)
		if err != nil {
			return errors.Wrapf(err, "update price for %s", sku)
		}
		if updated {
			applied++
		} else {
			skipped++
		}

		i++
		if i%100 == 0 || i == len(updates) {
			slog.Info("write progress", slog.Int("written", i), slog.Int("total", len(updates)))
		}
	}

	slog.Info("price updates applied", slog.Int("applied", applied), slog.Int("unknown_skus", skipped))
	return nil
}
