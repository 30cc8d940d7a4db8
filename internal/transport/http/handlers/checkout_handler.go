package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
	checkoutsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/checkout"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
	httperrors "github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/errors"
)

type CheckoutHandler struct {
	service *checkoutsvc.Service
}

func NewCheckoutHandler(service *checkoutsvc.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CHECKOUT_SERVICE_UNAVAILABLE", "checkout service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	session, err := h.service.Begin(r.Context(), identity.UserID, req.ProductID, req.ReferrerCode)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
		PriceID:   session.PriceID,
		Amount:    session.Amount,
		Currency:  session.Currency,
	})
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkoutsvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, checkoutsvc.ErrInvalidReferrer):
		writeBadRequest(w, "INVALID_REFERRER", "referral code does not match an active user")
	case errors.Is(err, checkoutsvc.ErrSelfReferral):
		writeBadRequest(w, "SELF_REFERRAL", "you cannot use your own referral code")
	default:
		handlePriceResolutionError(w, err)
	}
}
