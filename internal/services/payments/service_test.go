package payments

import (
	"context"
	"errors"
	"strings"
	"testing"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

type stubEntitlements struct {
	grants map[string]pgrepo.EntitlementRecord
	nextID int64
}

func (s *stubEntitlements) Grant(_ context.Context, userID int64, priceID, paymentIntentID string) (pgrepo.EntitlementRecord, bool, error) {
	if existing, ok := s.grants[paymentIntentID]; ok {
		return existing, false, nil
	}
	s.nextID++
	record := pgrepo.EntitlementRecord{
		ID:              s.nextID,
		UserID:          userID,
		PriceID:         priceID,
		PaymentIntentID: paymentIntentID,
		Status:          "active",
	}
	s.grants[paymentIntentID] = record
	return record, true, nil
}

func (s *stubEntitlements) Revoke(_ context.Context, paymentIntentID string) (pgrepo.EntitlementRecord, error) {
	record, ok := s.grants[paymentIntentID]
	if !ok {
		return pgrepo.EntitlementRecord{}, pgrepo.ErrEntitlementNotFound
	}
	record.Status = "refunded"
	s.grants[paymentIntentID] = record
	return record, nil
}

type stubCatalog struct {
	prices map[string]pgrepo.PriceRecord
}

func (s *stubCatalog) FindPrice(_ context.Context, priceID string) (pgrepo.PriceRecord, error) {
	price, ok := s.prices[priceID]
	if !ok {
		return pgrepo.PriceRecord{}, pgrepo.ErrPriceNotFound
	}
	return price, nil
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

type creditCall struct {
	referrerID      int64
	refereeEmail    string
	paymentIntentID string
	purchaseAmount  int64
}

type stubCrediter struct {
	calls []creditCall
	err   error
}

func (s *stubCrediter) RecordAndCredit(_ context.Context, referrerID int64, refereeEmail, paymentIntentID string, purchaseAmount int64) error {
	s.calls = append(s.calls, creditCall{referrerID, refereeEmail, paymentIntentID, purchaseAmount})
	return s.err
}

type stubResolver struct {
	price pgrepo.PriceRecord
	err   error
}

func (s *stubResolver) ResolvePrice(_ context.Context, _ int64, _ string) (pgrepo.PriceRecord, error) {
	if s.err != nil {
		return pgrepo.PriceRecord{}, s.err
	}
	return s.price, nil
}

func newFixture() (*Service, *stubEntitlements, *stubCrediter) {
	ents := &stubEntitlements{grants: map[string]pgrepo.EntitlementRecord{}}
	catalogStore := &stubCatalog{
		prices: map[string]pgrepo.PriceRecord{
			"price_student": {ID: "price_student", ProductID: "prod_curriculum", Amount: 9700, Currency: "usd"},
		},
	}
	users := &stubUsers{
		users: map[int64]pgrepo.UserRecord{
			3: {ID: 3, Email: "buyer@example.com", IsActive: true},
		},
	}
	crediter := &stubCrediter{}
	resolver := &stubResolver{price: catalogStore.prices["price_student"]}
	return NewService(ents, catalogStore, users, crediter, resolver, nil), ents, crediter
}

func grantEvent(paymentIntentID string) Event {
	return Event{
		PaymentIntentID: paymentIntentID,
		Metadata: map[string]string{
			"user_id":    "3",
			"price_id":   "price_student",
			"user_email": "buyer@example.com",
		},
	}
}

func TestConfirmGrantsOnce(t *testing.T) {
	svc, ents, _ := newFixture()

	outcome, err := svc.ConfirmPaymentSucceeded(context.Background(), grantEvent("pi_1"))
	if err != nil {
		t.Fatalf("ConfirmPaymentSucceeded: %v", err)
	}
	if outcome != OutcomeGranted {
		t.Fatalf("expected granted, got %s", outcome)
	}

	outcome, err = svc.ConfirmPaymentSucceeded(context.Background(), grantEvent("pi_1"))
	if err != nil {
		t.Fatalf("ConfirmPaymentSucceeded replay: %v", err)
	}
	if outcome != OutcomeReplayed {
		t.Fatalf("expected replayed, got %s", outcome)
	}

	if len(ents.grants) != 1 {
		t.Fatalf("expected exactly one grant, got %d", len(ents.grants))
	}
}

func TestConfirmRejectsMalformedMetadata(t *testing.T) {
	svc, ents, _ := newFixture()

	cases := []Event{
		{PaymentIntentID: "pi_bad_1", Metadata: map[string]string{"price_id": "price_student"}},
		{PaymentIntentID: "pi_bad_2", Metadata: map[string]string{"user_id": "abc", "price_id": "price_student"}},
		{PaymentIntentID: "pi_bad_3", Metadata: map[string]string{"user_id": "3"}},
		{PaymentIntentID: "", Metadata: map[string]string{"user_id": "3", "price_id": "price_student"}},
		{PaymentIntentID: "pi_bad_4", Metadata: map[string]string{"user_id": "3", "price_id": "price_missing"}},
		{PaymentIntentID: "pi_bad_5", Metadata: map[string]string{"user_id": "99", "price_id": "price_student"}},
	}

	for _, event := range cases {
		outcome, err := svc.ConfirmPaymentSucceeded(context.Background(), event)
		if err != nil {
			t.Fatalf("event %q: unexpected error %v", event.PaymentIntentID, err)
		}
		if outcome != OutcomeRejected {
			t.Fatalf("event %q: expected rejected, got %s", event.PaymentIntentID, outcome)
		}
	}

	if len(ents.grants) != 0 {
		t.Fatalf("rejected events must not grant, got %d grants", len(ents.grants))
	}
}

func TestConfirmAppliesReferralCredit(t *testing.T) {
	svc, _, crediter := newFixture()

	event := grantEvent("pi_ref")
	event.Metadata["referrer_id"] = "7"
	event.Metadata["referrer_code"] = "FRIEND12"

	if _, err := svc.ConfirmPaymentSucceeded(context.Background(), event); err != nil {
		t.Fatalf("ConfirmPaymentSucceeded: %v", err)
	}

	if len(crediter.calls) != 1 {
		t.Fatalf("expected one credit call, got %d", len(crediter.calls))
	}
	call := crediter.calls[0]
	if call.referrerID != 7 || call.paymentIntentID != "pi_ref" || call.purchaseAmount != 9700 {
		t.Fatalf("unexpected credit call: %+v", call)
	}
	if call.refereeEmail != "buyer@example.com" {
		t.Fatalf("unexpected referee email: %s", call.refereeEmail)
	}
}

func TestReferralCreditFailureDoesNotBlockGrant(t *testing.T) {
	svc, ents, crediter := newFixture()
	crediter.err = errors.New("referral table unavailable")

	event := grantEvent("pi_ref_fail")
	event.Metadata["referrer_id"] = "7"

	outcome, err := svc.ConfirmPaymentSucceeded(context.Background(), event)
	if err != nil {
		t.Fatalf("ConfirmPaymentSucceeded: %v", err)
	}
	if outcome != OutcomeGranted {
		t.Fatalf("expected granted despite credit failure, got %s", outcome)
	}
	if _, ok := ents.grants["pi_ref_fail"]; !ok {
		t.Fatal("grant must survive referral credit failure")
	}
}

func TestConfirmSkipsCreditWithoutReferrer(t *testing.T) {
	svc, _, crediter := newFixture()

	if _, err := svc.ConfirmPaymentSucceeded(context.Background(), grantEvent("pi_plain")); err != nil {
		t.Fatalf("ConfirmPaymentSucceeded: %v", err)
	}
	if len(crediter.calls) != 0 {
		t.Fatalf("expected no credit calls, got %d", len(crediter.calls))
	}
}

func TestRefundRevokes(t *testing.T) {
	svc, ents, _ := newFixture()

	if _, err := svc.ConfirmPaymentSucceeded(context.Background(), grantEvent("pi_refund")); err != nil {
		t.Fatalf("ConfirmPaymentSucceeded: %v", err)
	}

	outcome, err := svc.ConfirmChargeRefunded(context.Background(), "pi_refund")
	if err != nil {
		t.Fatalf("ConfirmChargeRefunded: %v", err)
	}
	if outcome != OutcomeRevoked {
		t.Fatalf("expected revoked, got %s", outcome)
	}
	if ents.grants["pi_refund"].Status != "refunded" {
		t.Fatalf("expected refunded status, got %s", ents.grants["pi_refund"].Status)
	}
}

func TestRefundUnknownPaymentAcked(t *testing.T) {
	svc, _, _ := newFixture()

	outcome, err := svc.ConfirmChargeRefunded(context.Background(), "pi_never_seen")
	if err != nil {
		t.Fatalf("ConfirmChargeRefunded: %v", err)
	}
	if outcome != OutcomeRejected {
		t.Fatalf("expected rejected, got %s", outcome)
	}
}

func TestDevConfirmSynthesizesPaymentIntent(t *testing.T) {
	svc, ents, _ := newFixture()

	outcome, paymentIntentID, err := svc.DevConfirm(context.Background(), 3, "prod_curriculum", "", 0)
	if err != nil {
		t.Fatalf("DevConfirm: %v", err)
	}
	if outcome != OutcomeGranted {
		t.Fatalf("expected granted, got %s", outcome)
	}
	if !strings.HasPrefix(paymentIntentID, "pi_dev_") {
		t.Fatalf("expected synthetic id, got %s", paymentIntentID)
	}
	if _, ok := ents.grants[paymentIntentID]; !ok {
		t.Fatal("dev confirm must create a grant")
	}
}
