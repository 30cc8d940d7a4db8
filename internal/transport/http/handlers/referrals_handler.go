package handlers

import (
	"net/http"

	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
	referralsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/referrals"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
	httperrors "github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/errors"
)

type ReferralsHandler struct {
	service *referralsvc.Service
}

func NewReferralsHandler(service *referralsvc.Service) *ReferralsHandler {
	return &ReferralsHandler{service: service}
}

// Stats returns the caller's referral code and credit totals, minting the
// code on first request.
func (h *ReferralsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "REFERRALS_SERVICE_UNAVAILABLE", "referrals service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	stats, err := h.service.StatsFor(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load referral stats")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ReferralStatsResponse{
		Code:    stats.Code,
		Credits: stats.Credits,
		Total:   stats.Total,
		Pending: stats.Pending,
	})
}
