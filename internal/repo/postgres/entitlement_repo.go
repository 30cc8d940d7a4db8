package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEntitlementNotFound = errors.New("entitlement not found")

type EntitlementRepo struct {
	pool *pgxpool.Pool
}

type EntitlementRecord struct {
	ID              int64
	UserID          int64
	PriceID         string
	PaymentIntentID string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewEntitlementRepo(pool *pgxpool.Pool) *EntitlementRepo {
	return &EntitlementRepo{pool: pool}
}

const entitlementColumns = `id, user_id, price_id, payment_intent_id, status, created_at, updated_at`

// Grant creates an active entitlement keyed by the payment intent id. The
// unique constraint on payment_intent_id makes concurrent or replayed grants
// race safely: exactly one insert wins, every other caller gets the existing
// row back with created=false.
func (r *EntitlementRepo) Grant(ctx context.Context, userID int64, priceID, paymentIntentID string) (EntitlementRecord, bool, error) {
	if r.pool == nil {
		return EntitlementRecord{}, false, fmt.Errorf("postgres pool is nil")
	}
	priceID = strings.TrimSpace(priceID)
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if userID <= 0 || priceID == "" || paymentIntentID == "" {
		return EntitlementRecord{}, false, fmt.Errorf("invalid entitlement grant payload")
	}

	record, err := scanEntitlement(r.pool.QueryRow(ctx, `
INSERT INTO entitlements (user_id, price_id, payment_intent_id, status, created_at, updated_at)
VALUES ($1, $2, $3, 'active', NOW(), NOW())
ON CONFLICT (payment_intent_id) DO NOTHING
RETURNING `+entitlementColumns+`
`, userID, priceID, paymentIntentID))
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
			return EntitlementRecord{}, false, fmt.Errorf("grant entitlement: %w", err)
		}
	}

	existing, err := r.FindByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return EntitlementRecord{}, false, err
	}
	return existing, false, nil
}

func (r *EntitlementRepo) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (EntitlementRecord, error) {
	if r.pool == nil {
		return EntitlementRecord{}, fmt.Errorf("postgres pool is nil")
	}
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return EntitlementRecord{}, fmt.Errorf("invalid payment intent id")
	}

	record, err := scanEntitlement(r.pool.QueryRow(ctx, `
SELECT `+entitlementColumns+`
FROM entitlements
WHERE payment_intent_id = $1
`, paymentIntentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EntitlementRecord{}, ErrEntitlementNotFound
		}
		return EntitlementRecord{}, fmt.Errorf("find entitlement by payment intent: %w", err)
	}

	return record, nil
}

// Revoke flips the entitlement matching the payment intent id to refunded.
// Rows are never deleted; the status transition is the revocation mechanism.
func (r *EntitlementRepo) Revoke(ctx context.Context, paymentIntentID string) (EntitlementRecord, error) {
	if r.pool == nil {
		return EntitlementRecord{}, fmt.Errorf("postgres pool is nil")
	}
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return EntitlementRecord{}, fmt.Errorf("invalid payment intent id")
	}

	record, err := scanEntitlement(r.pool.QueryRow(ctx, `
UPDATE entitlements
SET status = 'refunded', updated_at = NOW()
WHERE payment_intent_id = $1
RETURNING `+entitlementColumns+`
`, paymentIntentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EntitlementRecord{}, ErrEntitlementNotFound
		}
		return EntitlementRecord{}, fmt.Errorf("revoke entitlement: %w", err)
	}

	return record, nil
}

// HasActiveForProduct reports whether the user holds an active entitlement to
// any price under the given product.
func (r *EntitlementRepo) HasActiveForProduct(ctx context.Context, userID int64, productID string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	productID = strings.TrimSpace(productID)
	if userID <= 0 || productID == "" {
		return false, fmt.Errorf("invalid product access payload")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM entitlements e
	JOIN prices p ON p.id = e.price_id
	WHERE e.user_id = $1
	  AND e.status = 'active'
	  AND p.product_id = $2
)
`, userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product entitlement: %w", err)
	}

	return exists, nil
}

// HasActiveForCategory reports whether the user holds an active entitlement
// to any price under any product of the given category.
func (r *EntitlementRepo) HasActiveForCategory(ctx context.Context, userID int64, category string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	category = strings.TrimSpace(category)
	if userID <= 0 || category == "" {
		return false, fmt.Errorf("invalid category access payload")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM entitlements e
	JOIN prices p ON p.id = e.price_id
	JOIN products pr ON pr.id = p.product_id
	WHERE e.user_id = $1
	  AND e.status = 'active'
	  AND pr.category = $2
)
`, userID, category).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category entitlement: %w", err)
	}

	return exists, nil
}

func (r *EntitlementRepo) ListForUser(ctx context.Context, userID int64) ([]EntitlementRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+entitlementColumns+`
FROM entitlements
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	defer rows.Close()

	var records []EntitlementRecord
	for rows.Next() {
		record, err := scanEntitlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entitlement row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entitlement rows: %w", err)
	}

	return records, nil
}

func scanEntitlement(row pgx.Row) (EntitlementRecord, error) {
	var record EntitlementRecord
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.PriceID,
		&record.PaymentIntentID,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return EntitlementRecord{}, err
	}
	return record, nil
}
