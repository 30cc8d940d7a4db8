package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/domain/enums"
	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

type stubStore struct {
	byEmail map[string]pgrepo.UserRecord
	byID    map[int64]pgrepo.UserRecord
	nextID  int64
}

func newStubStore() *stubStore {
	return &stubStore{
		byEmail: map[string]pgrepo.UserRecord{},
		byID:    map[int64]pgrepo.UserRecord{},
	}
}

func (s *stubStore) FindByID(_ context.Context, userID int64) (pgrepo.UserRecord, error) {
	user, ok := s.byID[userID]
	if !ok {
		return pgrepo.UserRecord{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (s *stubStore) GetOrCreateByEmail(_ context.Context, email string) (pgrepo.UserRecord, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	s.nextID++
	user := pgrepo.UserRecord{ID: s.nextID, Email: email, Role: "USER", IsActive: true}
	s.byEmail[email] = user
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubStore) SetEmploymentProfile(_ context.Context, userID int64, status string, other *string) (pgrepo.UserRecord, error) {
	user, ok := s.byID[userID]
	if !ok {
		return pgrepo.UserRecord{}, pgrepo.ErrUserNotFound
	}
	user.EmploymentStatus = &status
	user.EmploymentOther = other
	s.byID[userID] = user
	s.byEmail[user.Email] = user
	return user, nil
}

func TestRegisterCreatesUserWithProfile(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	profile, err := svc.Register(context.Background(), "New@Example.com", string(enums.EmploymentStudent), "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if profile.Email != "new@example.com" {
		t.Fatalf("email not normalized: %s", profile.Email)
	}
	if profile.EmploymentStatus == nil || *profile.EmploymentStatus != string(enums.EmploymentStudent) {
		t.Fatalf("employment status not recorded: %v", profile.EmploymentStatus)
	}
}

func TestRegisterWithoutStatusLeavesProfileIncomplete(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	profile, err := svc.Register(context.Background(), "pending@example.com", "", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if profile.EmploymentStatus != nil {
		t.Fatal("employment status should be unset")
	}
}

func TestRegisterIsIdempotentPerEmail(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	first, err := svc.Register(context.Background(), "same@example.com", "", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	second, err := svc.Register(context.Background(), "SAME@example.com", "", "")
	if err != nil {
		t.Fatalf("Register again: %v", err)
	}
	if first.UserID != second.UserID {
		t.Fatalf("expected same user, got %d and %d", first.UserID, second.UserID)
	}
}

func TestRegisterRejectsUnknownStatus(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	_, err := svc.Register(context.Background(), "bad@example.com", "Unemployed", "")
	if !errors.Is(err, ErrUnknownEmploymentStatus) {
		t.Fatalf("expected ErrUnknownEmploymentStatus, got %v", err)
	}
}

func TestOtherStatusCapsFreeText(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	long := strings.Repeat("x", 80)
	profile, err := svc.Register(context.Background(), "other@example.com", string(enums.EmploymentOther), long)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if profile.EmploymentOther == nil || len(*profile.EmploymentOther) != maxEmploymentOtherLen {
		t.Fatalf("expected %d-char cap, got %v", maxEmploymentOtherLen, profile.EmploymentOther)
	}
}

func TestOtherTextIgnoredForNonOtherStatus(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	profile, err := svc.Register(context.Background(), "student@example.com", string(enums.EmploymentStudent), "something")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if profile.EmploymentOther != nil {
		t.Fatal("other text must be dropped for non-Other statuses")
	}
}

func TestMeUnknownUser(t *testing.T) {
	store := newStubStore()
	svc := NewService(store)

	_, err := svc.Me(context.Background(), 42)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
