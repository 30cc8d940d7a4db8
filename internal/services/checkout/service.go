package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/services/catalog"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/services/referrals"
)

var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrProductNotFound          = catalog.ErrProductNotFound
	ErrMissingEmploymentProfile = catalog.ErrMissingEmploymentProfile
	ErrNoEligiblePrice          = catalog.ErrNoEligiblePrice
	ErrInvalidReferrer          = referrals.ErrInvalidReferrer
	ErrSelfReferral             = referrals.ErrSelfReferral
)

// SessionInput is everything the payment provider needs to open a hosted
// checkout page. Metadata keys come back verbatim on the webhook and drive
// the grant pipeline, so they are set here and nowhere else.
type SessionInput struct {
	PriceID       string
	Amount        int64
	Currency      string
	ProductName   string
	CustomerEmail string
	Metadata      map[string]string
}

// Session carries the provider session plus the price the user will pay,
// so the checkout page can show the amount before redirecting.
type Session struct {
	ID       string
	URL      string
	PriceID  string
	Amount   int64
	Currency string
}

type Provider interface {
	CreateSession(ctx context.Context, input SessionInput) (Session, error)
}

type PriceResolver interface {
	ResolvePrice(ctx context.Context, userID int64, productID string) (pgrepo.PriceRecord, error)
	Product(ctx context.Context, productID string) (pgrepo.ProductRecord, error)
}

type ReferrerValidator interface {
	Validate(ctx context.Context, code string, refereeUserID int64) (pgrepo.UserRecord, error)
}

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (pgrepo.UserRecord, error)
}

type Service struct {
	provider  Provider
	prices    PriceResolver
	referrers ReferrerValidator
	users     UserStore
	logger    *zap.Logger
}

func NewService(provider Provider, prices PriceResolver, referrers ReferrerValidator, users UserStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		provider:  provider,
		prices:    prices,
		referrers: referrers,
		users:     users,
		logger:    logger,
	}
}

// Begin resolves the user's price for the product, validates the referral
// code if one was supplied and opens a provider checkout session carrying
// the metadata the webhook needs to grant the entitlement.
func (s *Service) Begin(ctx context.Context, userID int64, productID, referrerCode string) (Session, error) {
	productID = strings.TrimSpace(productID)
	referrerCode = strings.ToUpper(strings.TrimSpace(referrerCode))
	if userID <= 0 || productID == "" {
		return Session{}, ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("load user for checkout: %w", err)
	}

	price, err := s.prices.ResolvePrice(ctx, userID, productID)
	if err != nil {
		return Session{}, err
	}

	product, err := s.prices.Product(ctx, productID)
	if err != nil {
		return Session{}, err
	}

	metadata := map[string]string{
		"user_id":    strconv.FormatInt(userID, 10),
		"price_id":   price.ID,
		"user_email": user.Email,
	}

	if referrerCode != "" {
		referrer, err := s.referrers.Validate(ctx, referrerCode, userID)
		if err != nil {
			return Session{}, err
		}
		metadata["referrer_id"] = strconv.FormatInt(referrer.ID, 10)
		metadata["referrer_code"] = referrerCode
	}

	session, err := s.provider.CreateSession(ctx, SessionInput{
		PriceID:       price.ID,
		Amount:        price.Amount,
		Currency:      price.Currency,
		ProductName:   product.Name,
		CustomerEmail: user.Email,
		Metadata:      metadata,
	})
	if err != nil {
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	session.PriceID = price.ID
	session.Amount = price.Amount
	session.Currency = price.Currency

	s.logger.Info("checkout session created",
		zap.Int64("user_id", userID),
		zap.String("product_id", productID),
		zap.String("price_id", price.ID),
		zap.Bool("referred", referrerCode != ""),
	)

	return session, nil
}
