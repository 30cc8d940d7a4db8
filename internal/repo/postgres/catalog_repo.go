package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/domain/enums"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrPriceNotFound   = errors.New("price not found")
)

type CatalogRepo struct {
	pool *pgxpool.Pool
}

type ProductRecord struct {
	ID        string
	Name      string
	Category  string
	Active    bool
	CreatedAt time.Time
}

type PriceRecord struct {
	ID               string
	ProductID        string
	Amount           int64
	Currency         string
	Active           bool
	EligibleStatuses []string
	CreatedAt        time.Time
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

func (r *CatalogRepo) FindProduct(ctx context.Context, productID string) (ProductRecord, error) {
	if r.pool == nil {
		return ProductRecord{}, fmt.Errorf("postgres pool is nil")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ProductRecord{}, fmt.Errorf("invalid product id")
	}

	var product ProductRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, name, category, active, created_at
FROM products
WHERE id = $1
`, productID).Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Active,
		&product.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductRecord{}, ErrProductNotFound
		}
		return ProductRecord{}, fmt.Errorf("find product: %w", err)
	}

	return product, nil
}

func (r *CatalogRepo) FindPrice(ctx context.Context, priceID string) (PriceRecord, error) {
	if r.pool == nil {
		return PriceRecord{}, fmt.Errorf("postgres pool is nil")
	}
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return PriceRecord{}, fmt.Errorf("invalid price id")
	}

	price, err := scanPrice(r.pool.QueryRow(ctx, `
SELECT id, product_id, amount, currency, active, eligible_employment_statuses, created_at
FROM prices
WHERE id = $1
`, priceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PriceRecord{}, ErrPriceNotFound
		}
		return PriceRecord{}, fmt.Errorf("find price: %w", err)
	}

	return price, nil
}

// ListActivePrices returns the product's active prices in stable catalog
// order so eligibility resolution is repeatable.
func (r *CatalogRepo) ListActivePrices(ctx context.Context, productID string) ([]PriceRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("invalid product id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, product_id, amount, currency, active, eligible_employment_statuses, created_at
FROM prices
WHERE product_id = $1
  AND active
ORDER BY created_at, id
`, productID)
	if err != nil {
		return nil, fmt.Errorf("list active prices: %w", err)
	}
	defer rows.Close()

	var prices []PriceRecord
	for rows.Next() {
		price, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		prices = append(prices, price)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return prices, nil
}

func (r *CatalogRepo) ListProducts(ctx context.Context) ([]ProductRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, name, category, active, created_at
FROM products
WHERE active
ORDER BY created_at, id
`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []ProductRecord
	for rows.Next() {
		var product ProductRecord
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Category,
			&product.Active,
			&product.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// UpsertProduct validates the category at write time so the access rules
// never see a product they cannot classify.
func (r *CatalogRepo) UpsertProduct(ctx context.Context, product ProductRecord) error {
	if strings.TrimSpace(product.ID) == "" || strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("invalid product payload")
	}
	if !enums.CourseCategory(product.Category).Valid() {
		return fmt.Errorf("unknown product category: %q", product.Category)
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO products (id, name, category, active, created_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (id) DO UPDATE
SET
	name = EXCLUDED.name,
	category = EXCLUDED.category,
	active = EXCLUDED.active
`, product.ID, product.Name, product.Category, product.Active); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}

// UpsertPrice validates eligibility membership at write time so malformed
// status values never reach the resolver.
func (r *CatalogRepo) UpsertPrice(ctx context.Context, price PriceRecord) error {
	if strings.TrimSpace(price.ID) == "" || strings.TrimSpace(price.ProductID) == "" {
		return fmt.Errorf("invalid price payload")
	}
	for _, status := range price.EligibleStatuses {
		if !enums.EmploymentStatus(status).Valid() {
			return fmt.Errorf("unknown employment status in eligibility set: %q", status)
		}
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO prices (id, product_id, amount, currency, active, eligible_employment_statuses, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (id) DO UPDATE
SET
	amount = EXCLUDED.amount,
	currency = EXCLUDED.currency,
	active = EXCLUDED.active,
	eligible_employment_statuses = EXCLUDED.eligible_employment_statuses
`, price.ID, price.ProductID, price.Amount, strings.ToLower(price.Currency), price.Active, price.EligibleStatuses); err != nil {
		return fmt.Errorf("upsert price: %w", err)
	}

	return nil
}

func scanPrice(row pgx.Row) (PriceRecord, error) {
	var price PriceRecord
	if err := row.Scan(
		&price.ID,
		&price.ProductID,
		&price.Amount,
		&price.Currency,
		&price.Active,
		&price.EligibleStatuses,
		&price.CreatedAt,
	); err != nil {
		return PriceRecord{}, err
	}
	return price, nil
}
