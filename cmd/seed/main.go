package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/config"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/infra/logger"
	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

// seedCatalog mirrors configs/catalog.yaml. Prices nest under their product
// so a price can never be seeded without its product.
type seedCatalog struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Category string      `yaml:"category"`
	Active   bool        `yaml:"active"`
	Prices   []seedPrice `yaml:"prices"`
}

type seedPrice struct {
	ID               string   `yaml:"id"`
	Amount           int64    `yaml:"amount"`
	Currency         string   `yaml:"currency"`
	Active           bool     `yaml:"active"`
	EligibleStatuses []string `yaml:"eligible_employment_statuses"`
}

func main() {
	_ = godotenv.Load()

	catalogPath := flag.String("catalog", "configs/catalog.yaml", "catalog definition to seed")
	flag.Parse()

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	raw, err := os.ReadFile(*catalogPath)
	if err != nil {
		log.Fatal("read catalog file", zap.String("path", *catalogPath), zap.Error(err))
	}

	var catalog seedCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		log.Fatal("parse catalog file", zap.String("path", *catalogPath), zap.Error(err))
	}

	ctx := context.Background()
	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("postgres init", zap.Error(err))
	}
	defer pool.Close()

	repo := pgrepo.NewCatalogRepo(pool)

	var productCount, priceCount int
	for _, product := range catalog.Products {
		if err := repo.UpsertProduct(ctx, pgrepo.ProductRecord{
			ID:       product.ID,
			Name:     product.Name,
			Category: product.Category,
			Active:   product.Active,
		}); err != nil {
			log.Fatal("upsert product", zap.String("product_id", product.ID), zap.Error(err))
		}
		productCount++

		for _, price := range product.Prices {
			if err := repo.UpsertPrice(ctx, pgrepo.PriceRecord{
				ID:               price.ID,
				ProductID:        product.ID,
				Amount:           price.Amount,
				Currency:         price.Currency,
				Active:           price.Active,
				EligibleStatuses: price.EligibleStatuses,
			}); err != nil {
				log.Fatal("upsert price", zap.String("price_id", price.ID), zap.Error(err))
			}
			priceCount++
		}
	}

	log.Info("catalog seeded",
		zap.Int("products", productCount),
		zap.Int("prices", priceCount),
	)
}
