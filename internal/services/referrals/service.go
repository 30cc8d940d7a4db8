package referrals

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"go.uber.org/zap"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 5
)

var (
	ErrInvalidReferrer = errors.New("referral code does not match an active user")
	ErrSelfReferral    = errors.New("users cannot refer themselves")
)

type Store interface {
	CreateIfAbsent(ctx context.Context, referrerID int64, refereeEmail, paymentIntentID string, creditAmount int64) (pgrepo.ReferralRecord, bool, error)
	Credit(ctx context.Context, referralID int64) error
	Stats(ctx context.Context, referrerID int64) (pgrepo.ReferralStatsRecord, error)
}

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (pgrepo.UserRecord, error)
	FindByReferralCode(ctx context.Context, code string) (pgrepo.UserRecord, error)
	SetReferralCode(ctx context.Context, userID int64, code string) (string, error)
}

type Config struct {
	CreditPercent int
	CodeLength    int
}

type Service struct {
	store  Store
	users  UserStore
	cfg    Config
	logger *zap.Logger
}

func NewService(store Store, users UserStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.CreditPercent <= 0 || cfg.CreditPercent > 100 {
		cfg.CreditPercent = 25
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:  store,
		users:  users,
		cfg:    cfg,
		logger: logger,
	}
}

// EnsureCode returns the user's referral code, minting one on first use.
// Collisions against the unique constraint are retried with fresh codes.
func (s *Service) EnsureCode(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user for referral code: %w", err)
	}
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newCode(s.cfg.CodeLength)
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}

		assigned, err := s.users.SetReferralCode(ctx, userID, code)
		if err == nil {
			return assigned, nil
		}
		if errors.Is(err, pgrepo.ErrReferralCodeCollision) {
			continue
		}
		return "", fmt.Errorf("assign referral code: %w", err)
	}

	return "", fmt.Errorf("could not assign a unique referral code after %d attempts", maxCodeAttempts)
}

// Validate resolves a referral code to its owner and rejects self-referral.
func (s *Service) Validate(ctx context.Context, code string, refereeUserID int64) (pgrepo.UserRecord, error) {
	referrer, err := s.users.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return pgrepo.UserRecord{}, ErrInvalidReferrer
		}
		return pgrepo.UserRecord{}, fmt.Errorf("find referrer: %w", err)
	}
	if referrer.ID == refereeUserID {
		return pgrepo.UserRecord{}, ErrSelfReferral
	}

	return referrer, nil
}

// CreditAmount computes the referrer's cut of a purchase in cents.
func (s *Service) CreditAmount(purchaseAmount int64) int64 {
	if purchaseAmount <= 0 {
		return 0
	}
	return purchaseAmount * int64(s.cfg.CreditPercent) / 100
}

// RecordAndCredit registers the referral for the payment and applies the
// credit. Replays of the same payment intent find the existing row and
// leave the balance alone.
func (s *Service) RecordAndCredit(ctx context.Context, referrerID int64, refereeEmail, paymentIntentID string, purchaseAmount int64) error {
	creditAmount := s.CreditAmount(purchaseAmount)

	referral, created, err := s.store.CreateIfAbsent(ctx, referrerID, refereeEmail, paymentIntentID, creditAmount)
	if err != nil {
		return fmt.Errorf("record referral: %w", err)
	}
	if !created {
		s.logger.Info("referral already recorded for payment intent",
			zap.String("payment_intent_id", paymentIntentID),
			zap.Int64("referral_id", referral.ID),
		)
	}

	if err := s.store.Credit(ctx, referral.ID); err != nil {
		return fmt.Errorf("credit referral: %w", err)
	}

	return nil
}

type Stats struct {
	Code    string
	Credits int64
	Total   int64
	Pending int64
}

func (s *Service) StatsFor(ctx context.Context, userID int64) (Stats, error) {
	code, err := s.EnsureCode(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("load user for referral stats: %w", err)
	}

	counts, err := s.store.Stats(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("load referral stats: %w", err)
	}

	return Stats{
		Code:    code,
		Credits: user.ReferralCredits,
		Total:   counts.Total,
		Pending: counts.Pending,
	}, nil
}

func newCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
