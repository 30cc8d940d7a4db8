package entitlements

import (
	"context"
	"fmt"
	"time"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

type Store interface {
	ListForUser(ctx context.Context, userID int64) ([]pgrepo.EntitlementRecord, error)
}

type CatalogStore interface {
	FindPrice(ctx context.Context, priceID string) (pgrepo.PriceRecord, error)
	FindProduct(ctx context.Context, productID string) (pgrepo.ProductRecord, error)
}

type Service struct {
	store   Store
	catalog CatalogStore
}

func NewService(store Store, catalog CatalogStore) *Service {
	return &Service{store: store, catalog: catalog}
}

type Entitlement struct {
	ID              int64
	ProductID       string
	ProductName     string
	Category        string
	PriceID         string
	Amount          int64
	Currency        string
	PaymentIntentID string
	Status          string
	CreatedAt       time.Time
}

// ListForUser returns the user's entitlements joined with product and price
// details for display.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Entitlement, error) {
	records, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}

	result := make([]Entitlement, 0, len(records))
	for _, record := range records {
		entry := Entitlement{
			ID:              record.ID,
			PriceID:         record.PriceID,
			PaymentIntentID: record.PaymentIntentID,
			Status:          record.Status,
			CreatedAt:       record.CreatedAt,
		}

		price, err := s.catalog.FindPrice(ctx, record.PriceID)
		if err != nil {
			return nil, fmt.Errorf("load price %s: %w", record.PriceID, err)
		}
		entry.Amount = price.Amount
		entry.Currency = price.Currency
		entry.ProductID = price.ProductID

		product, err := s.catalog.FindProduct(ctx, price.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", price.ProductID, err)
		}
		entry.ProductName = product.Name
		entry.Category = product.Category

		result = append(result, entry)
	}

	return result, nil
}
