package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
	accesssvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/access"
	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
)

type stubCourseStore struct {
	courses map[int64]pgrepo.CourseRecord
}

func (s *stubCourseStore) FindByID(_ context.Context, courseID int64) (pgrepo.CourseRecord, error) {
	course, ok := s.courses[courseID]
	if !ok {
		return pgrepo.CourseRecord{}, pgrepo.ErrCourseNotFound
	}
	return course, nil
}

func (s *stubCourseStore) List(_ context.Context) ([]pgrepo.CourseRecord, error) {
	var out []pgrepo.CourseRecord
	for id := int64(1); id <= int64(len(s.courses)); id++ {
		if course, ok := s.courses[id]; ok {
			out = append(out, course)
		}
	}
	return out, nil
}

type stubAccessStore struct {
	products map[string]bool
}

func (s *stubAccessStore) HasActiveForProduct(_ context.Context, _ int64, productID string) (bool, error) {
	return s.products[productID], nil
}

func (s *stubAccessStore) HasActiveForCategory(_ context.Context, _ int64, _ string) (bool, error) {
	return false, nil
}

func strPtr(v string) *string { return &v }

func newCourseFixture() (*CourseHandler, *stubAccessStore) {
	courses := &stubCourseStore{
		courses: map[int64]pgrepo.CourseRecord{
			1: {ID: 1, Title: "Intro", Category: "free", MaterialsURL: strPtr("https://materials.example.com/intro")},
			2: {ID: 2, Title: "Workshop", Category: "alacarte", ProductID: strPtr("prod_workshop"), MaterialsURL: strPtr("https://materials.example.com/workshop")},
		},
	}
	ents := &stubAccessStore{products: map[string]bool{}}
	access := accesssvc.NewService(courses, ents, nil)
	return NewCourseHandler(access, courses), ents
}

func getCourse(handler *CourseHandler, courseID string, identity *authsvc.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/courses/"+courseID, nil)

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("courseID", courseID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	if identity != nil {
		ctx = authsvc.WithIdentity(ctx, *identity)
	}

	rr := httptest.NewRecorder()
	handler.Get(rr, req.WithContext(ctx))
	return rr
}

func TestGetCourseRequiresAuth(t *testing.T) {
	handler, _ := newCourseFixture()

	rr := getCourse(handler, "1", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestGetCourseHidesMaterialsWithoutEntitlement(t *testing.T) {
	handler, _ := newCourseFixture()

	rr := getCourse(handler, "2", &authsvc.Identity{UserID: 10, SID: "sid", Role: "USER"})
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var resp dto.CourseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Accessible {
		t.Fatal("course should be locked without entitlement")
	}
	if resp.MaterialsURL != nil {
		t.Fatal("materials url must be hidden for locked courses")
	}
}

func TestGetCourseExposesMaterialsWithEntitlement(t *testing.T) {
	handler, ents := newCourseFixture()
	ents.products["prod_workshop"] = true

	rr := getCourse(handler, "2", &authsvc.Identity{UserID: 10, SID: "sid", Role: "USER"})
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var resp dto.CourseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Accessible {
		t.Fatal("course should be accessible with entitlement")
	}
	if resp.MaterialsURL == nil || *resp.MaterialsURL == "" {
		t.Fatal("materials url must be present for accessible courses")
	}
}

func TestGetCourseNotFound(t *testing.T) {
	handler, _ := newCourseFixture()

	rr := getCourse(handler, "99", &authsvc.Identity{UserID: 10, SID: "sid", Role: "USER"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetCourseRejectsBadID(t *testing.T) {
	handler, _ := newCourseFixture()

	rr := getCourse(handler, "abc", &authsvc.Identity{UserID: 10, SID: "sid", Role: "USER"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}
