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

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrReferralCodeCollision = errors.New("referral code already taken")
)

type UserRepo struct {
	pool *pgxpool.Pool
}

type UserRecord struct {
	ID               int64
	Email            string
	EmploymentStatus *string
	EmploymentOther  *string
	ReferralCode     *string
	ReferralCredits  int64
	Role             string
	IsActive         bool
	CreatedAt        time.Time
	LastLogin        *time.Time
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, email, employment_status, employment_status_other, referral_code, referral_credits, role, is_active, created_at, last_login`

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return UserRecord{}, fmt.Errorf("invalid user id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	email = normalizeEmail(email)
	if email == "" {
		return UserRecord{}, fmt.Errorf("invalid email")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE email = $1
`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("find user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByReferralCode(ctx context.Context, code string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return UserRecord{}, fmt.Errorf("invalid referral code")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE referral_code = $1
  AND is_active
`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("find user by referral code: %w", err)
	}

	return user, nil
}

// GetOrCreateByEmail inserts a user row for the email if one does not exist
// and returns the row either way.
func (r *UserRepo) GetOrCreateByEmail(ctx context.Context, email string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	email = normalizeEmail(email)
	if email == "" {
		return UserRecord{}, fmt.Errorf("invalid email")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (email, role, is_active, created_at)
VALUES ($1, 'USER', TRUE, NOW())
ON CONFLICT (email) DO UPDATE
SET email = EXCLUDED.email
RETURNING `+userColumns+`
`, email))
	if err != nil {
		return UserRecord{}, fmt.Errorf("get or create user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepo) SetEmploymentProfile(ctx context.Context, userID int64, status string, other *string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(status) == "" {
		return UserRecord{}, fmt.Errorf("invalid employment profile payload")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
UPDATE users
SET
	employment_status = $2,
	employment_status_other = $3
WHERE id = $1
RETURNING `+userColumns+`
`, userID, strings.TrimSpace(status), other))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("set employment profile: %w", err)
	}

	return user, nil
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE users
SET last_login = $2
WHERE id = $1
`, userID, at.UTC()); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}

	return nil
}

// SetReferralCode assigns a code only when the user has none yet. Returns
// ErrReferralCodeCollision when another user already holds the code so the
// caller can retry with a fresh one.
func (r *UserRepo) SetReferralCode(ctx context.Context, userID int64, code string) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if userID <= 0 || code == "" {
		return "", fmt.Errorf("invalid referral code payload")
	}

	var assigned string
	err := r.pool.QueryRow(ctx, `
UPDATE users
SET referral_code = COALESCE(referral_code, $2)
WHERE id = $1
RETURNING referral_code
`, userID, code).Scan(&assigned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrReferralCodeCollision
		}
		return "", fmt.Errorf("set referral code: %w", err)
	}

	return assigned, nil
}

func scanUser(row pgx.Row) (UserRecord, error) {
	var user UserRecord
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.EmploymentStatus,
		&user.EmploymentOther,
		&user.ReferralCode,
		&user.ReferralCredits,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.LastLogin,
	); err != nil {
		return UserRecord{}, err
	}
	return user, nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
