package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

var ErrEntitlementNotFound = pgrepo.ErrEntitlementNotFound

// Outcome describes what a confirmed payment event did. Rejected events are
// acknowledged to the provider so they are not retried; the defect is in the
// event, not in our processing.
type Outcome string

const (
	OutcomeGranted  Outcome = "granted"
	OutcomeReplayed Outcome = "replayed"
	OutcomeRevoked  Outcome = "revoked"
	OutcomeRejected Outcome = "rejected"
)

// Event is a provider payment notification reduced to the fields the grant
// pipeline reads. Metadata travels from checkout session creation to here
// untouched by the provider.
type Event struct {
	PaymentIntentID string
	Metadata        map[string]string
}

type EntitlementStore interface {
	Grant(ctx context.Context, userID int64, priceID, paymentIntentID string) (pgrepo.EntitlementRecord, bool, error)
	Revoke(ctx context.Context, paymentIntentID string) (pgrepo.EntitlementRecord, error)
}

type CatalogStore interface {
	FindPrice(ctx context.Context, priceID string) (pgrepo.PriceRecord, error)
}

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (pgrepo.UserRecord, error)
}

type ReferralCrediter interface {
	RecordAndCredit(ctx context.Context, referrerID int64, refereeEmail, paymentIntentID string, purchaseAmount int64) error
}

type PriceResolver interface {
	ResolvePrice(ctx context.Context, userID int64, productID string) (pgrepo.PriceRecord, error)
}

type Service struct {
	entitlements EntitlementStore
	catalog      CatalogStore
	users        UserStore
	referrals    ReferralCrediter
	resolver     PriceResolver
	logger       *zap.Logger
}

func NewService(entitlements EntitlementStore, catalog CatalogStore, users UserStore, referralCrediter ReferralCrediter, resolver PriceResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		entitlements: entitlements,
		catalog:      catalog,
		users:        users,
		referrals:    referralCrediter,
		resolver:     resolver,
		logger:       logger,
	}
}

// ConfirmPaymentSucceeded turns a successful payment event into an
// entitlement. The payment intent id is the idempotency key: replays find
// the existing grant and change nothing. Malformed events are rejected but
// never returned as errors, so the provider stops retrying them.
//
// The referral credit is a side effect of the grant, never a gate on it: a
// failure to credit is logged and the grant stands.
func (s *Service) ConfirmPaymentSucceeded(ctx context.Context, event Event) (Outcome, error) {
	paymentIntentID := strings.TrimSpace(event.PaymentIntentID)
	if paymentIntentID == "" {
		s.logger.Warn("payment event without payment intent id, rejecting")
		return OutcomeRejected, nil
	}

	userID, priceID, ok := s.parseGrantMetadata(paymentIntentID, event.Metadata)
	if !ok {
		return OutcomeRejected, nil
	}

	price, err := s.catalog.FindPrice(ctx, priceID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPriceNotFound) {
			s.logger.Warn("payment event references unknown price, rejecting",
				zap.String("payment_intent_id", paymentIntentID),
				zap.String("price_id", priceID),
			)
			return OutcomeRejected, nil
		}
		return "", fmt.Errorf("load price for grant: %w", err)
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			s.logger.Warn("payment event references unknown user, rejecting",
				zap.String("payment_intent_id", paymentIntentID),
				zap.Int64("user_id", userID),
			)
			return OutcomeRejected, nil
		}
		return "", fmt.Errorf("load user for grant: %w", err)
	}

	record, created, err := s.entitlements.Grant(ctx, userID, priceID, paymentIntentID)
	if err != nil {
		return "", fmt.Errorf("grant entitlement: %w", err)
	}
	if !created {
		s.logger.Info("payment event replayed, entitlement already granted",
			zap.String("payment_intent_id", paymentIntentID),
			zap.Int64("entitlement_id", record.ID),
		)
		s.applyReferralCredit(ctx, event, price.Amount)
		return OutcomeReplayed, nil
	}

	s.logger.Info("entitlement granted",
		zap.String("payment_intent_id", paymentIntentID),
		zap.Int64("user_id", userID),
		zap.String("price_id", priceID),
		zap.Int64("entitlement_id", record.ID),
	)

	s.applyReferralCredit(ctx, event, price.Amount)

	return OutcomeGranted, nil
}

// ConfirmChargeRefunded revokes the entitlement for a refunded payment. A
// refund for a payment we never granted is logged and acknowledged.
func (s *Service) ConfirmChargeRefunded(ctx context.Context, paymentIntentID string) (Outcome, error) {
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		s.logger.Warn("refund event without payment intent id, rejecting")
		return OutcomeRejected, nil
	}

	record, err := s.entitlements.Revoke(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrEntitlementNotFound) {
			s.logger.Warn("refund for unknown payment intent",
				zap.String("payment_intent_id", paymentIntentID),
			)
			return OutcomeRejected, nil
		}
		return "", fmt.Errorf("revoke entitlement: %w", err)
	}

	s.logger.Info("entitlement revoked for refund",
		zap.String("payment_intent_id", paymentIntentID),
		zap.Int64("entitlement_id", record.ID),
		zap.Int64("user_id", record.UserID),
	)

	return OutcomeRevoked, nil
}

// DevConfirm synthesizes a successful payment for local testing without the
// payment provider. The synthetic payment intent id keeps the same
// idempotency machinery in play.
func (s *Service) DevConfirm(ctx context.Context, userID int64, productID, referrerCode string, referrerID int64) (Outcome, string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("load user for dev confirm: %w", err)
	}

	price, err := s.resolver.ResolvePrice(ctx, userID, productID)
	if err != nil {
		return "", "", err
	}

	paymentIntentID := "pi_dev_" + uuid.NewString()
	metadata := map[string]string{
		"user_id":    strconv.FormatInt(userID, 10),
		"price_id":   price.ID,
		"user_email": user.Email,
	}
	if referrerID > 0 {
		metadata["referrer_id"] = strconv.FormatInt(referrerID, 10)
		metadata["referrer_code"] = referrerCode
	}

	outcome, err := s.ConfirmPaymentSucceeded(ctx, Event{
		PaymentIntentID: paymentIntentID,
		Metadata:        metadata,
	})
	if err != nil {
		return "", "", err
	}

	return outcome, paymentIntentID, nil
}

func (s *Service) parseGrantMetadata(paymentIntentID string, metadata map[string]string) (int64, string, bool) {
	userID, err := strconv.ParseInt(strings.TrimSpace(metadata["user_id"]), 10, 64)
	if err != nil || userID <= 0 {
		s.logger.Warn("payment event with missing or malformed user_id metadata, rejecting",
			zap.String("payment_intent_id", paymentIntentID),
		)
		return 0, "", false
	}

	priceID := strings.TrimSpace(metadata["price_id"])
	if priceID == "" {
		s.logger.Warn("payment event without price_id metadata, rejecting",
			zap.String("payment_intent_id", paymentIntentID),
		)
		return 0, "", false
	}

	return userID, priceID, true
}

func (s *Service) applyReferralCredit(ctx context.Context, event Event, purchaseAmount int64) {
	rawReferrerID := strings.TrimSpace(event.Metadata["referrer_id"])
	if rawReferrerID == "" {
		return
	}

	referrerID, err := strconv.ParseInt(rawReferrerID, 10, 64)
	if err != nil || referrerID <= 0 {
		s.logger.Warn("payment event with malformed referrer_id metadata, skipping credit",
			zap.String("payment_intent_id", event.PaymentIntentID),
			zap.String("referrer_id", rawReferrerID),
		)
		return
	}

	refereeEmail := strings.TrimSpace(event.Metadata["user_email"])
	if err := s.referrals.RecordAndCredit(ctx, referrerID, refereeEmail, event.PaymentIntentID, purchaseAmount); err != nil {
		s.logger.Error("referral credit failed, grant is unaffected",
			zap.String("payment_intent_id", event.PaymentIntentID),
			zap.Int64("referrer_id", referrerID),
			zap.Error(err),
		)
	}
}
