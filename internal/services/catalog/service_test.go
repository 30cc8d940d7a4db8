package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/domain/enums"
	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

type stubStore struct {
	products map[string]pgrepo.ProductRecord
	prices   map[string][]pgrepo.PriceRecord
}

func (s *stubStore) FindProduct(_ context.Context, productID string) (pgrepo.ProductRecord, error) {
	product, ok := s.products[productID]
	if !ok {
		return pgrepo.ProductRecord{}, pgrepo.ErrProductNotFound
	}
	return product, nil
}

func (s *stubStore) FindPrice(_ context.Context, priceID string) (pgrepo.PriceRecord, error) {
	for _, prices := range s.prices {
		for _, price := range prices {
			if price.ID == priceID {
				return price, nil
			}
		}
	}
	return pgrepo.PriceRecord{}, pgrepo.ErrPriceNotFound
}

func (s *stubStore) ListActivePrices(_ context.Context, productID string) ([]pgrepo.PriceRecord, error) {
	return s.prices[productID], nil
}

func (s *stubStore) ListProducts(_ context.Context) ([]pgrepo.ProductRecord, error) {
	var products []pgrepo.ProductRecord
	for _, product := range s.products {
		products = append(products, product)
	}
	return products, nil
}

type stubUsers struct {
	users map[int64]pgrepo.UserRecord
}

func (s *stubUsers) FindByID(_ context.Context, userID int64) (pgrepo.UserRecord, error) {
	user, ok := s.users[userID]
	if !ok {
		return pgrepo.UserRecord{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func strPtr(v string) *string { return &v }

func newFixture() (*Service, *stubStore, *stubUsers) {
	store := &stubStore{
		products: map[string]pgrepo.ProductRecord{
			"prod_curriculum": {ID: "prod_curriculum", Name: "Full Curriculum", Category: string(enums.CourseCategoryCurriculum), Active: true},
		},
		prices: map[string][]pgrepo.PriceRecord{
			"prod_curriculum": {
				{ID: "price_student", ProductID: "prod_curriculum", Amount: 9700, Currency: "usd", Active: true, EligibleStatuses: []string{string(enums.EmploymentStudent), string(enums.EmploymentBetweenJobs)}},
				{ID: "price_employed", ProductID: "prod_curriculum", Amount: 49700, Currency: "usd", Active: true, EligibleStatuses: []string{string(enums.EmploymentFullTime), string(enums.EmploymentPartTime), string(enums.EmploymentSelfEmployed)}},
				{ID: "price_open", ProductID: "prod_curriculum", Amount: 29700, Currency: "usd", Active: true},
			},
		},
	}
	users := &stubUsers{
		users: map[int64]pgrepo.UserRecord{
			1: {ID: 1, Email: "student@example.com", EmploymentStatus: strPtr(string(enums.EmploymentStudent)), IsActive: true},
			2: {ID: 2, Email: "employed@example.com", EmploymentStatus: strPtr(string(enums.EmploymentFullTime)), IsActive: true},
			3: {ID: 3, Email: "blank@example.com", IsActive: true},
			4: {ID: 4, Email: "retired@example.com", EmploymentStatus: strPtr(string(enums.EmploymentRetired)), IsActive: true},
		},
	}
	return NewService(store, users, nil), store, users
}

func TestResolvePriceStudent(t *testing.T) {
	svc, _, _ := newFixture()

	price, err := svc.ResolvePrice(context.Background(), 1, "prod_curriculum")
	if err != nil {
		t.Fatalf("ResolvePrice: %v", err)
	}
	if price.ID != "price_student" {
		t.Fatalf("expected student price, got %s", price.ID)
	}
	if price.Amount != 9700 {
		t.Fatalf("expected 9700, got %d", price.Amount)
	}
}

func TestResolvePriceEmployed(t *testing.T) {
	svc, _, _ := newFixture()

	price, err := svc.ResolvePrice(context.Background(), 2, "prod_curriculum")
	if err != nil {
		t.Fatalf("ResolvePrice: %v", err)
	}
	if price.ID != "price_employed" {
		t.Fatalf("expected employed price, got %s", price.ID)
	}
}

func TestResolvePriceOpenFallback(t *testing.T) {
	svc, _, _ := newFixture()

	// Retired matches no restricted set, only the open price.
	price, err := svc.ResolvePrice(context.Background(), 4, "prod_curriculum")
	if err != nil {
		t.Fatalf("ResolvePrice: %v", err)
	}
	if price.ID != "price_open" {
		t.Fatalf("expected open price, got %s", price.ID)
	}
}

func TestResolvePriceMissingProfile(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.ResolvePrice(context.Background(), 3, "prod_curriculum")
	if !errors.Is(err, ErrMissingEmploymentProfile) {
		t.Fatalf("expected ErrMissingEmploymentProfile, got %v", err)
	}
}

func TestResolvePriceNoEligible(t *testing.T) {
	svc, store, _ := newFixture()
	store.prices["prod_curriculum"] = []pgrepo.PriceRecord{
		{ID: "price_student", ProductID: "prod_curriculum", Amount: 9700, Currency: "usd", Active: true, EligibleStatuses: []string{string(enums.EmploymentStudent)}},
	}

	_, err := svc.ResolvePrice(context.Background(), 2, "prod_curriculum")
	if !errors.Is(err, ErrNoEligiblePrice) {
		t.Fatalf("expected ErrNoEligiblePrice, got %v", err)
	}
}

func TestResolvePriceUnknownProduct(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.ResolvePrice(context.Background(), 1, "prod_missing")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestResolvePriceOverlapFirstMatchWins(t *testing.T) {
	svc, store, _ := newFixture()
	store.prices["prod_curriculum"] = []pgrepo.PriceRecord{
		{ID: "price_a", ProductID: "prod_curriculum", Amount: 100, Currency: "usd", Active: true, EligibleStatuses: []string{string(enums.EmploymentStudent)}},
		{ID: "price_b", ProductID: "prod_curriculum", Amount: 200, Currency: "usd", Active: true, EligibleStatuses: []string{string(enums.EmploymentStudent)}},
	}

	price, err := svc.ResolvePrice(context.Background(), 1, "prod_curriculum")
	if err != nil {
		t.Fatalf("ResolvePrice: %v", err)
	}
	if price.ID != "price_a" {
		t.Fatalf("expected first match price_a, got %s", price.ID)
	}
}

func TestEligiblePrices(t *testing.T) {
	svc, _, _ := newFixture()

	prices, err := svc.EligiblePrices(context.Background(), "prod_curriculum", string(enums.EmploymentStudent))
	if err != nil {
		t.Fatalf("EligiblePrices: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("expected 2 eligible prices, got %d", len(prices))
	}
	if prices[0].ID != "price_student" || prices[1].ID != "price_open" {
		t.Fatalf("unexpected eligible order: %s, %s", prices[0].ID, prices[1].ID)
	}
}
