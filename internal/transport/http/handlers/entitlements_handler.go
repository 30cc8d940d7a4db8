package handlers

import (
	"net/http"

	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
	entsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/entitlements"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
	httperrors "github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/errors"
)

type EntitlementsHandler struct {
	service *entsvc.Service
}

func NewEntitlementsHandler(service *entsvc.Service) *EntitlementsHandler {
	return &EntitlementsHandler{service: service}
}

func (h *EntitlementsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ENTITLEMENTS_SERVICE_UNAVAILABLE", "entitlements service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	entitlements, err := h.service.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load entitlements")
		return
	}

	out := make([]dto.EntitlementResponse, 0, len(entitlements))
	for _, entry := range entitlements {
		out = append(out, dto.EntitlementResponse{
			ID:          entry.ID,
			ProductID:   entry.ProductID,
			ProductName: entry.ProductName,
			Category:    entry.Category,
			PriceID:     entry.PriceID,
			Amount:      entry.Amount,
			Currency:    entry.Currency,
			Status:      entry.Status,
			CreatedAt:   entry.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.EntitlementListResponse{Entitlements: out})
}
