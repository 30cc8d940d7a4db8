package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
	paymentsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/payments"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
)

type stubUserDirectory struct{}

func (stubUserDirectory) FindByEmail(_ context.Context, email string) (pgrepo.UserRecord, error) {
	if email != "buyer@example.com" {
		return pgrepo.UserRecord{}, pgrepo.ErrUserNotFound
	}
	return pgrepo.UserRecord{ID: 3, Email: "buyer@example.com", IsActive: true}, nil
}

func newDevPayFixture() (*DevPayHandler, *stubEntitlementStore) {
	ents := &stubEntitlementStore{grants: map[string]pgrepo.EntitlementRecord{}}
	payments := paymentsvc.NewService(ents, stubCatalogStore{}, stubUserStore{}, &stubCrediter{}, stubResolver{}, nil)
	return NewDevPayHandler(payments, stubUserDirectory{}), ents
}

func postDevConfirm(handler *DevPayHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/pay/dev/confirm", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Confirm(rr, req)
	return rr
}

func TestDevConfirmByUserID(t *testing.T) {
	handler, ents := newDevPayFixture()

	rr := postDevConfirm(handler, `{"user_id":3,"product_id":"prod_curriculum"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp dto.DevConfirmResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Outcome != "granted" {
		t.Fatalf("expected granted, got %s", resp.Outcome)
	}
	if !strings.HasPrefix(resp.PaymentIntentID, "pi_dev_") {
		t.Fatalf("expected synthetic payment intent id, got %s", resp.PaymentIntentID)
	}
	if _, ok := ents.grants[resp.PaymentIntentID]; !ok {
		t.Fatal("dev confirm must create a grant")
	}
}

func TestDevConfirmResolvesUserByEmail(t *testing.T) {
	handler, ents := newDevPayFixture()

	rr := postDevConfirm(handler, `{"user_email":"buyer@example.com","product_id":"prod_curriculum"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if len(ents.grants) != 1 {
		t.Fatalf("expected one grant, got %d", len(ents.grants))
	}
	for _, grant := range ents.grants {
		if grant.UserID != 3 {
			t.Fatalf("grant went to user %d, expected 3", grant.UserID)
		}
	}
}

func TestDevConfirmUnknownEmail(t *testing.T) {
	handler, _ := newDevPayFixture()

	rr := postDevConfirm(handler, `{"user_email":"stranger@example.com","product_id":"prod_curriculum"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDevConfirmRequiresUserReference(t *testing.T) {
	handler, _ := newDevPayFixture()

	rr := postDevConfirm(handler, `{"product_id":"prod_curriculum"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}
