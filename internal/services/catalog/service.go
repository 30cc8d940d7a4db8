package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/domain/enums"
	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

var (
	ErrProductNotFound          = errors.New("product not found")
	ErrPriceNotFound            = errors.New("price not found")
	ErrMissingEmploymentProfile = errors.New("employment profile required")
	ErrNoEligiblePrice          = errors.New("no eligible price for employment status")
)

type Store interface {
	FindProduct(ctx context.Context, productID string) (pgrepo.ProductRecord, error)
	FindPrice(ctx context.Context, priceID string) (pgrepo.PriceRecord, error)
	ListActivePrices(ctx context.Context, productID string) ([]pgrepo.PriceRecord, error)
	ListProducts(ctx context.Context) ([]pgrepo.ProductRecord, error)
}

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (pgrepo.UserRecord, error)
}

type Service struct {
	store  Store
	users  UserStore
	logger *zap.Logger
}

func NewService(store Store, users UserStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:  store,
		users:  users,
		logger: logger,
	}
}

func (s *Service) Products(ctx context.Context) ([]pgrepo.ProductRecord, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Service) Product(ctx context.Context, productID string) (pgrepo.ProductRecord, error) {
	product, err := s.store.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProductNotFound) {
			return pgrepo.ProductRecord{}, ErrProductNotFound
		}
		return pgrepo.ProductRecord{}, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *Service) Price(ctx context.Context, priceID string) (pgrepo.PriceRecord, error) {
	price, err := s.store.FindPrice(ctx, priceID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPriceNotFound) {
			return pgrepo.PriceRecord{}, ErrPriceNotFound
		}
		return pgrepo.PriceRecord{}, fmt.Errorf("find price: %w", err)
	}
	return price, nil
}

// ResolvePrice picks the price the user pays for a product based on their
// employment status. An empty eligibility set means the price applies to
// everyone. When several prices match, the first one in catalog order wins
// and the overlap is logged for the catalog owner to fix.
func (s *Service) ResolvePrice(ctx context.Context, userID int64, productID string) (pgrepo.PriceRecord, error) {
	productID = strings.TrimSpace(productID)
	if userID <= 0 || productID == "" {
		return pgrepo.PriceRecord{}, fmt.Errorf("invalid price resolution payload")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return pgrepo.PriceRecord{}, fmt.Errorf("load user for price resolution: %w", err)
	}
	if user.EmploymentStatus == nil || !enums.EmploymentStatus(*user.EmploymentStatus).Valid() {
		return pgrepo.PriceRecord{}, ErrMissingEmploymentProfile
	}
	status := *user.EmploymentStatus

	if _, err := s.Product(ctx, productID); err != nil {
		return pgrepo.PriceRecord{}, err
	}

	matches, err := s.EligiblePrices(ctx, productID, status)
	if err != nil {
		return pgrepo.PriceRecord{}, err
	}
	if len(matches) == 0 {
		return pgrepo.PriceRecord{}, ErrNoEligiblePrice
	}
	if len(matches) > 1 {
		s.logger.Warn("overlapping price eligibility, using first match",
			zap.String("product_id", productID),
			zap.String("employment_status", status),
			zap.Int("match_count", len(matches)),
			zap.String("chosen_price_id", matches[0].ID),
		)
	}

	return matches[0], nil
}

// EligiblePrices returns every active price of the product the status
// qualifies for, in catalog order.
func (s *Service) EligiblePrices(ctx context.Context, productID, employmentStatus string) ([]pgrepo.PriceRecord, error) {
	prices, err := s.store.ListActivePrices(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list active prices: %w", err)
	}

	var matches []pgrepo.PriceRecord
	for _, price := range prices {
		if priceEligible(price, employmentStatus) {
			matches = append(matches, price)
		}
	}

	return matches, nil
}

func priceEligible(price pgrepo.PriceRecord, status string) bool {
	if len(price.EligibleStatuses) == 0 {
		return true
	}
	for _, eligible := range price.EligibleStatuses {
		if eligible == status {
			return true
		}
	}
	return false
}
