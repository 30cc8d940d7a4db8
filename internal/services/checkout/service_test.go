package checkout

import (
	"context"
	"errors"
	"testing"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/services/catalog"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/services/referrals"
)

type stubProvider struct {
	last    SessionInput
	session Session
	err     error
}

func (s *stubProvider) CreateSession(_ context.Context, input SessionInput) (Session, error) {
	s.last = input
	if s.err != nil {
		return Session{}, s.err
	}
	return s.session, nil
}

type stubPrices struct {
	price      pgrepo.PriceRecord
	product    pgrepo.ProductRecord
	resolveErr error
}

func (s *stubPrices) ResolvePrice(_ context.Context, _ int64, _ string) (pgrepo.PriceRecord, error) {
	if s.resolveErr != nil {
		return pgrepo.PriceRecord{}, s.resolveErr
	}
	return s.price, nil
}

func (s *stubPrices) Product(_ context.Context, _ string) (pgrepo.ProductRecord, error) {
	return s.product, nil
}

type stubReferrers struct {
	referrer pgrepo.UserRecord
	err      error
}

func (s *stubReferrers) Validate(_ context.Context, _ string, _ int64) (pgrepo.UserRecord, error) {
	if s.err != nil {
		return pgrepo.UserRecord{}, s.err
	}
	return s.referrer, nil
}

type stubUsers struct {
	user pgrepo.UserRecord
}

func (s *stubUsers) FindByID(_ context.Context, _ int64) (pgrepo.UserRecord, error) {
	return s.user, nil
}

func newFixture() (*Service, *stubProvider, *stubPrices, *stubReferrers) {
	provider := &stubProvider{session: Session{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}}
	prices := &stubPrices{
		price:   pgrepo.PriceRecord{ID: "price_student", ProductID: "prod_curriculum", Amount: 9700, Currency: "usd"},
		product: pgrepo.ProductRecord{ID: "prod_curriculum", Name: "Full Curriculum", Category: "curriculum"},
	}
	referrers := &stubReferrers{referrer: pgrepo.UserRecord{ID: 7, Email: "referrer@example.com"}}
	users := &stubUsers{user: pgrepo.UserRecord{ID: 3, Email: "buyer@example.com", IsActive: true}}
	return NewService(provider, prices, referrers, users, nil), provider, prices, referrers
}

func TestBeginCarriesGrantMetadata(t *testing.T) {
	svc, provider, _, _ := newFixture()

	session, err := svc.Begin(context.Background(), 3, "prod_curriculum", "")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if session.URL == "" {
		t.Fatal("expected a checkout URL")
	}
	if session.PriceID != "price_student" || session.Amount != 9700 || session.Currency != "usd" {
		t.Fatalf("session must carry the resolved price, got %+v", session)
	}

	meta := provider.last.Metadata
	if meta["user_id"] != "3" {
		t.Fatalf("metadata user_id = %q", meta["user_id"])
	}
	if meta["price_id"] != "price_student" {
		t.Fatalf("metadata price_id = %q", meta["price_id"])
	}
	if meta["user_email"] != "buyer@example.com" {
		t.Fatalf("metadata user_email = %q", meta["user_email"])
	}
	if _, ok := meta["referrer_id"]; ok {
		t.Fatal("referrer_id must be absent without a referral code")
	}
}

func TestBeginWithReferralCode(t *testing.T) {
	svc, provider, _, _ := newFixture()

	if _, err := svc.Begin(context.Background(), 3, "prod_curriculum", "friend12"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	meta := provider.last.Metadata
	if meta["referrer_id"] != "7" {
		t.Fatalf("metadata referrer_id = %q", meta["referrer_id"])
	}
	if meta["referrer_code"] != "FRIEND12" {
		t.Fatalf("metadata referrer_code = %q, expected uppercased", meta["referrer_code"])
	}
}

func TestBeginRejectsInvalidReferrer(t *testing.T) {
	svc, _, _, referrers := newFixture()
	referrers.err = referrals.ErrInvalidReferrer

	_, err := svc.Begin(context.Background(), 3, "prod_curriculum", "NOPE1234")
	if !errors.Is(err, ErrInvalidReferrer) {
		t.Fatalf("expected ErrInvalidReferrer, got %v", err)
	}
}

func TestBeginRejectsSelfReferral(t *testing.T) {
	svc, _, _, referrers := newFixture()
	referrers.err = referrals.ErrSelfReferral

	_, err := svc.Begin(context.Background(), 3, "prod_curriculum", "MYOWNCOD")
	if !errors.Is(err, ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
}

func TestBeginPropagatesResolutionErrors(t *testing.T) {
	svc, _, prices, _ := newFixture()

	prices.resolveErr = catalog.ErrMissingEmploymentProfile
	if _, err := svc.Begin(context.Background(), 3, "prod_curriculum", ""); !errors.Is(err, ErrMissingEmploymentProfile) {
		t.Fatalf("expected ErrMissingEmploymentProfile, got %v", err)
	}

	prices.resolveErr = catalog.ErrNoEligiblePrice
	if _, err := svc.Begin(context.Background(), 3, "prod_curriculum", ""); !errors.Is(err, ErrNoEligiblePrice) {
		t.Fatalf("expected ErrNoEligiblePrice, got %v", err)
	}
}

func TestBeginValidatesInput(t *testing.T) {
	svc, _, _, _ := newFixture()

	if _, err := svc.Begin(context.Background(), 0, "prod_curriculum", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero user, got %v", err)
	}
	if _, err := svc.Begin(context.Background(), 3, "  ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank product, got %v", err)
	}
}
