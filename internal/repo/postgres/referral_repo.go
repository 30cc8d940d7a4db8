package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReferralNotFound = errors.New("referral not found")

type ReferralRepo struct {
	pool *pgxpool.Pool
}

type ReferralRecord struct {
	ID              int64
	ReferrerID      int64
	RefereeEmail    string
	PaymentIntentID string
	CreditAmount    int64
	Status          string
	CreatedAt       time.Time
}

type ReferralStatsRecord struct {
	Total   int64
	Pending int64
}

func NewReferralRepo(pool *pgxpool.Pool) *ReferralRepo {
	return &ReferralRepo{pool: pool}
}

const referralColumns = `id, referrer_id, referee_email, payment_intent_id, credit_amount, status, created_at`

// CreateIfAbsent inserts a pending referral keyed by the payment intent id.
// A replayed webhook hits the unique constraint and gets the existing row
// back with created=false, so the credit is never applied twice.
func (r *ReferralRepo) CreateIfAbsent(ctx context.Context, referrerID int64, refereeEmail, paymentIntentID string, creditAmount int64) (ReferralRecord, bool, error) {
	if r.pool == nil {
		return ReferralRecord{}, false, fmt.Errorf("postgres pool is nil")
	}
	refereeEmail = normalizeEmail(refereeEmail)
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if referrerID <= 0 || paymentIntentID == "" {
		return ReferralRecord{}, false, fmt.Errorf("invalid referral payload")
	}

	record, err := scanReferral(r.pool.QueryRow(ctx, `
INSERT INTO referrals (referrer_id, referee_email, payment_intent_id, credit_amount, status, created_at)
VALUES ($1, $2, $3, $4, 'pending', NOW())
ON CONFLICT (payment_intent_id) DO NOTHING
RETURNING `+referralColumns+`
`, referrerID, refereeEmail, paymentIntentID, creditAmount))
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ReferralRecord{}, false, fmt.Errorf("create referral: %w", err)
	}

	existing, err := scanReferral(r.pool.QueryRow(ctx, `
SELECT `+referralColumns+`
FROM referrals
WHERE payment_intent_id = $1
`, paymentIntentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReferralRecord{}, false, ErrReferralNotFound
		}
		return ReferralRecord{}, false, fmt.Errorf("find referral by payment intent: %w", err)
	}

	return existing, false, nil
}

// Credit marks the referral credited and increments the referrer's balance
// in one transaction. Already-credited referrals are left untouched.
func (r *ReferralRepo) Credit(ctx context.Context, referralID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if referralID <= 0 {
		return fmt.Errorf("invalid referral id")
	}

	return WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		var (
			referrerID   int64
			creditAmount int64
			status       string
		)
		err := tx.QueryRow(txCtx, `
SELECT referrer_id, credit_amount, status
FROM referrals
WHERE id = $1
FOR UPDATE
`, referralID).Scan(&referrerID, &creditAmount, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrReferralNotFound
			}
			return fmt.Errorf("lock referral: %w", err)
		}

		if status == "credited" {
			return nil
		}

		if _, err := tx.Exec(txCtx, `
UPDATE users
SET referral_credits = referral_credits + $2
WHERE id = $1
`, referrerID, creditAmount); err != nil {
			return fmt.Errorf("apply referral credit: %w", err)
		}

		if _, err := tx.Exec(txCtx, `
UPDATE referrals
SET status = 'credited'
WHERE id = $1
`, referralID); err != nil {
			return fmt.Errorf("mark referral credited: %w", err)
		}

		return nil
	})
}

func (r *ReferralRepo) Stats(ctx context.Context, referrerID int64) (ReferralStatsRecord, error) {
	if r.pool == nil {
		return ReferralStatsRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if referrerID <= 0 {
		return ReferralStatsRecord{}, fmt.Errorf("invalid referrer id")
	}

	var stats ReferralStatsRecord
	err := r.pool.QueryRow(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'pending')
FROM referrals
WHERE referrer_id = $1
`, referrerID).Scan(&stats.Total, &stats.Pending)
	if err != nil {
		return ReferralStatsRecord{}, fmt.Errorf("load referral stats: %w", err)
	}

	return stats, nil
}

func scanReferral(row pgx.Row) (ReferralRecord, error) {
	var record ReferralRecord
	if err := row.Scan(
		&record.ID,
		&record.ReferrerID,
		&record.RefereeEmail,
		&record.PaymentIntentID,
		&record.CreditAmount,
		&record.Status,
		&record.CreatedAt,
	); err != nil {
		return ReferralRecord{}, err
	}
	return record, nil
}
