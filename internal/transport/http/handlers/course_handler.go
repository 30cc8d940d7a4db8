package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	accesssvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/access"
	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
	httperrors "github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/errors"
)

type CourseHandler struct {
	access  *accesssvc.Service
	courses accesssvc.CourseStore
}

func NewCourseHandler(access *accesssvc.Service, courses accesssvc.CourseStore) *CourseHandler {
	return &CourseHandler{access: access, courses: courses}
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.access == nil {
		writeInternal(w, "ACCESS_SERVICE_UNAVAILABLE", "access service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	list, err := h.access.ListWithAccess(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load courses")
		return
	}

	courses := make([]dto.CourseResponse, 0, len(list))
	for _, entry := range list {
		courses = append(courses, toCourseResponse(entry))
	}

	httperrors.Write(w, http.StatusOK, dto.CourseListResponse{Courses: courses})
}

// Get returns one course. The materials URL is stripped from the response
// unless the caller's entitlements allow access.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.access == nil || h.courses == nil {
		writeInternal(w, "ACCESS_SERVICE_UNAVAILABLE", "access service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	courseID, ok := courseIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "course id must be a positive integer")
		return
	}

	course, err := h.courses.FindByID(r.Context(), courseID)
	if err != nil {
		handleCourseError(w, err)
		return
	}

	accessible, err := h.access.CanAccessCourse(r.Context(), identity.UserID, course)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to check course access")
		return
	}

	httperrors.Write(w, http.StatusOK, toCourseResponse(accesssvc.CourseWithAccess{
		Course:     course,
		Accessible: accessible,
	}))
}

func (h *CourseHandler) Access(w http.ResponseWriter, r *http.Request) {
	if h.access == nil {
		writeInternal(w, "ACCESS_SERVICE_UNAVAILABLE", "access service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	courseID, ok := courseIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "course id must be a positive integer")
		return
	}

	accessible, err := h.access.CanAccess(r.Context(), identity.UserID, courseID)
	if err != nil {
		handleCourseError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CourseAccessResponse{
		CourseID:   courseID,
		Accessible: accessible,
	})
}

func handleCourseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accesssvc.ErrCourseNotFound):
		writeNotFound(w, "COURSE_NOT_FOUND", "course not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func courseIDFromRequest(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "courseID")
	courseID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || courseID <= 0 {
		return 0, false
	}
	return courseID, true
}

func toCourseResponse(entry accesssvc.CourseWithAccess) dto.CourseResponse {
	resp := dto.CourseResponse{
		ID:          entry.Course.ID,
		Title:       entry.Course.Title,
		Description: entry.Course.Description,
		Category:    entry.Course.Category,
		Accessible:  entry.Accessible,
	}
	if entry.Accessible {
		resp.MaterialsURL = entry.Course.MaterialsURL
	}
	return resp
}
