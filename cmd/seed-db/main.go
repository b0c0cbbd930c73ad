// Command seed-db loads the catalog seed file and a default API key into
// PostgreSQL, running migrations first. It is idempotent: products and keys
// are upserted by primary key.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/trademill/wholesale-api/internal/domain/auth"
	"github.com/trademill/wholesale-api/internal/repository"
)

type productJSON struct {
	ID             string           `json:"id"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Category       string           `json:"category"`
	BasePrice      decimal.Decimal  `json:"basePrice"`
	SalePrice      *decimal.Decimal `json:"salePrice"`
	SaleActive     bool             `json:"saleActive"`
	UnitsPerPack   int              `json:"unitsPerPack"`
	PacksPerPallet int              `json:"packsPerPallet"`
	StockBaseUnits int64            `json:"stockBaseUnits"`
	Offers         json.RawMessage  `json:"offers"`
}

const upsertProductSQL = `
INSERT INTO products (id, sku, name, category, base_price, sale_price, sale_active,
                      offers, units_per_pack, packs_per_pallet, stock_base_units)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    sku              = EXCLUDED.sku,
    name             = EXCLUDED.name,
    category         = EXCLUDED.category,
    base_price       = EXCLUDED.base_price,
    sale_price       = EXCLUDED.sale_price,
    sale_active      = EXCLUDED.sale_active,
    offers           = EXCLUDED.offers,
    units_per_pack   = EXCLUDED.units_per_pack,
    packs_per_pallet = EXCLUDED.packs_per_pallet,
    stock_base_units = EXCLUDED.stock_base_units`

const upsertAPIKeySQL = `
INSERT INTO api_keys (id, key_hash, name, scopes)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
    key_hash = EXCLUDED.key_hash,
    name     = EXCLUDED.name,
    scopes   = EXCLUDED.scopes`

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or WHS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or WHS_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("WHS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or WHS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("WHS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
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
		offers := p.Offers
		if len(offers) == 0 {
			offers = json.RawMessage("[]")
		}
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.SKU, p.Name, p.Category,
			p.BasePrice, p.SalePrice, p.SaleActive,
			offers, p.UnitsPerPack, p.PacksPerPallet, p.StockBaseUnits,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	if _, err := pool.Exec(ctx, upsertAPIKeySQL,
		"default",
		auth.HashKey(apiKey, []byte(pepper)),
		"Default test key",
		[]string{"place_order"},
	); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("name", "Default test key"))

	return nil
}
