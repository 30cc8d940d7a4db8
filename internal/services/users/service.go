package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/domain/enums"
	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

const maxEmploymentOtherLen = 50

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrUserNotFound            = errors.New("user not found")
	ErrUnknownEmploymentStatus = errors.New("unknown employment status")
)

type Store interface {
	FindByID(ctx context.Context, userID int64) (pgrepo.UserRecord, error)
	GetOrCreateByEmail(ctx context.Context, email string) (pgrepo.UserRecord, error)
	SetEmploymentProfile(ctx context.Context, userID int64, status string, other *string) (pgrepo.UserRecord, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Profile struct {
	UserID           int64
	Email            string
	EmploymentStatus *string
	EmploymentOther  *string
	ReferralCode     *string
	ReferralCredits  int64
	Role             string
}

// Register creates the account if needed and records the employment answer.
// Registration without an employment status is allowed; price resolution
// stays blocked until the profile is completed.
func (s *Service) Register(ctx context.Context, email, employmentStatus, employmentOther string) (Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Profile{}, ErrInvalidInput
	}

	user, err := s.store.GetOrCreateByEmail(ctx, email)
	if err != nil {
		return Profile{}, fmt.Errorf("get or create user: %w", err)
	}

	if strings.TrimSpace(employmentStatus) != "" {
		user, err = s.setEmployment(ctx, user.ID, employmentStatus, employmentOther)
		if err != nil {
			return Profile{}, err
		}
	}

	return toProfile(user), nil
}

func (s *Service) CompleteProfile(ctx context.Context, userID int64, employmentStatus, employmentOther string) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrInvalidInput
	}

	user, err := s.setEmployment(ctx, userID, employmentStatus, employmentOther)
	if err != nil {
		return Profile{}, err
	}

	return toProfile(user), nil
}

func (s *Service) Me(ctx context.Context, userID int64) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrInvalidInput
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("load user: %w", err)
	}

	return toProfile(user), nil
}

func (s *Service) setEmployment(ctx context.Context, userID int64, status, other string) (pgrepo.UserRecord, error) {
	status = strings.TrimSpace(status)
	if !enums.EmploymentStatus(status).Valid() {
		return pgrepo.UserRecord{}, ErrUnknownEmploymentStatus
	}

	var otherPtr *string
	if enums.EmploymentStatus(status) == enums.EmploymentOther {
		other = strings.TrimSpace(other)
		if len(other) > maxEmploymentOtherLen {
			other = other[:maxEmploymentOtherLen]
		}
		if other != "" {
			otherPtr = &other
		}
	}

	user, err := s.store.SetEmploymentProfile(ctx, userID, status, otherPtr)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return pgrepo.UserRecord{}, ErrUserNotFound
		}
		return pgrepo.UserRecord{}, fmt.Errorf("set employment profile: %w", err)
	}

	return user, nil
}

func toProfile(user pgrepo.UserRecord) Profile {
	return Profile{
		UserID:           user.ID,
		Email:            user.Email,
		EmploymentStatus: user.EmploymentStatus,
		EmploymentOther:  user.EmploymentOther,
		ReferralCode:     user.ReferralCode,
		ReferralCredits:  user.ReferralCredits,
		Role:             user.Role,
	}
}
