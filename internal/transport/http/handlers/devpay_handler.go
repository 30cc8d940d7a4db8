package handlers

import (
	"context"
	"errors"
	"net/http"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
	paymentsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/payments"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
	httperrors "github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/errors"
)

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (pgrepo.UserRecord, error)
}

// DevPayHandler exposes a payment confirmation path that skips the payment
// provider entirely. It is mounted behind the owner role and exists for
// local and staging environments.
type DevPayHandler struct {
	payments *paymentsvc.Service
	users    UserFinder
}

func NewDevPayHandler(payments *paymentsvc.Service, users UserFinder) *DevPayHandler {
	return &DevPayHandler{payments: payments, users: users}
}

func (h *DevPayHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	var req dto.DevConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeBadRequest(w, "INVALID_REQUEST", "product_id is required")
		return
	}

	userID := req.UserID
	if userID <= 0 {
		if req.UserEmail == "" || h.users == nil {
			writeBadRequest(w, "INVALID_REQUEST", "user_id or user_email is required")
			return
		}
		user, err := h.users.FindByEmail(r.Context(), req.UserEmail)
		if err != nil {
			if errors.Is(err, pgrepo.ErrUserNotFound) {
				writeNotFound(w, "USER_NOT_FOUND", "user not found")
				return
			}
			writeInternal(w, "INTERNAL_ERROR", "failed to resolve user")
			return
		}
		userID = user.ID
	}

	outcome, paymentIntentID, err := h.payments.DevConfirm(r.Context(), userID, req.ProductID, "", req.ReferrerID)
	if err != nil {
		switch {
		case errors.Is(err, paymentsvc.ErrEntitlementNotFound):
			writeNotFound(w, "ENTITLEMENT_NOT_FOUND", "entitlement not found")
		default:
			handlePriceResolutionError(w, err)
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DevConfirmResponse{
		Outcome:         string(outcome),
		PaymentIntentID: paymentIntentID,
	})
}
