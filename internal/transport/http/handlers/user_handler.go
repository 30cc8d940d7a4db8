package handlers

import (
	"errors"
	"net/http"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/domain/enums"
	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
	usersvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/users"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
	httperrors "github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/errors"
)

type UserHandler struct {
	service *usersvc.Service
}

func NewUserHandler(service *usersvc.Service) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	profile, err := h.service.Register(r.Context(), req.Email, req.EmploymentStatus, req.EmploymentOther)
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toMeResponse(profile))
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	profile, err := h.service.CompleteProfile(r.Context(), identity.UserID, req.EmploymentStatus, req.EmploymentOther)
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toMeResponse(profile))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	profile, err := h.service.Me(r.Context(), identity.UserID)
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toMeResponse(profile))
}

func (h *UserHandler) EmploymentStatuses(w http.ResponseWriter, _ *http.Request) {
	statuses := enums.AllEmploymentStatuses()
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}

	httperrors.Write(w, http.StatusOK, dto.EmploymentStatusesResponse{Statuses: out})
}

func handleUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usersvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, usersvc.ErrUnknownEmploymentStatus):
		writeBadRequest(w, "UNKNOWN_EMPLOYMENT_STATUS", "employment status is not recognized")
	case errors.Is(err, usersvc.ErrUserNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func toMeResponse(profile usersvc.Profile) dto.MeResponse {
	return dto.MeResponse{
		ID:               profile.UserID,
		Email:            profile.Email,
		EmploymentStatus: profile.EmploymentStatus,
		EmploymentOther:  profile.EmploymentOther,
		ReferralCode:     profile.ReferralCode,
		ReferralCredits:  profile.ReferralCredits,
		Role:             profile.Role,
	}
}
