package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
)

func TestRequireRoleAllowsCaseInsensitiveMatch(t *testing.T) {
	mw := RequireRole("OWNER")

	req := httptest.NewRequest(http.MethodPost, "/pay/dev/confirm", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 1,
		SID:    "sid-1",
		Role:   "owner",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestRequireRoleRejectsForbiddenRole(t *testing.T) {
	mw := RequireRole("OWNER")

	req := httptest.NewRequest(http.MethodPost, "/pay/dev/confirm", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 2,
		SID:    "sid-2",
		Role:   "USER",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called for forbidden role")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRequireRoleRejectsMissingIdentity(t *testing.T) {
	mw := RequireRole("OWNER")

	req := httptest.NewRequest(http.MethodPost, "/pay/dev/confirm", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without identity")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestExtractBearerToken(t *testing.T) {
	token, ok := extractBearerToken("Bearer abc123")
	if !ok || token != "abc123" {
		t.Fatalf("expected abc123, got %q ok=%v", token, ok)
	}

	if _, ok := extractBearerToken("abc123"); ok {
		t.Fatal("token without scheme must be rejected")
	}
	if _, ok := extractBearerToken("Bearer "); ok {
		t.Fatal("empty token must be rejected")
	}
}
