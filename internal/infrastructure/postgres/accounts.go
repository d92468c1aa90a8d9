package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/centry-onboarding/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AccountRepo stores accounts in the accounts table. Each write is a single
// statement whose WHERE clause carries the precondition.
type AccountRepo struct {
	db     DBTX
	pinger Pinger
	now    func() time.Time
}

func NewAccountRepo(db DBTX, pinger Pinger) *AccountRepo {
	return &AccountRepo{db: db, pinger: pinger, now: time.Now}
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query :=
		`INSERT INTO accounts (account_id, full_name, email, phone_number, password_hash,
		     referral_code, otp_digest, otp_expires_at, is_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		a.AccountID, a.FullName, a.Email, a.PhoneNumber, a.PasswordHash,
		nullString(a.ReferralCode), a.OTPDigest, a.OTPExpiresAt, a.IsVerified,
		a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create account: %w", domain.ErrDuplicateIdentity)
		}
		return fmt.Errorf("%w: db error: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query :=
		`SELECT account_id, full_name, email, phone_number, password_hash, referral_code,
		     otp_digest, otp_expires_at, is_verified, pin_hash, created_at, updated_at
		 FROM accounts
		 WHERE email = $1`

	var (
		a                         domain.Account
		referral, digest, pinHash sql.NullString
		expiresAt                 sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&a.AccountID, &a.FullName, &a.Email, &a.PhoneNumber, &a.PasswordHash, &referral,
		&digest, &expiresAt, &a.IsVerified, &pinHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: db error: %w", domain.ErrPersistence, err)
	}
	if referral.Valid {
		a.ReferralCode = &referral.String
	}
	a.OTPDigest = digest.String
	a.PINHash = pinHash.String
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		a.OTPExpiresAt = &t
	}
	return &a, nil
}

func (r *AccountRepo) ReplaceOTP(ctx context.Context, email, digest string, expiresAt time.Time) error {
	query :=
		`UPDATE accounts SET otp_digest = $2, otp_expires_at = $3, updated_at = $4
		 WHERE email = $1`
	return r.exec(ctx, query, domain.ErrNotFound, email, digest, expiresAt.UTC(), r.now().UTC())
}

// MarkVerified only matches while the stored digest is still the checked one.
func (r *AccountRepo) MarkVerified(ctx context.Context, email, digest string) error {
	query :=
		`UPDATE accounts SET is_verified = TRUE, otp_digest = NULL, otp_expires_at = NULL, updated_at = $3
		 WHERE email = $1 AND otp_digest = $2`
	return r.exec(ctx, query, domain.ErrInvalidCode, email, digest, r.now().UTC())
}

func (r *AccountRepo) SetPIN(ctx context.Context, email, pinHash string) error {
	query :=
		`UPDATE accounts SET pin_hash = $2, updated_at = $3
		 WHERE email = $1 AND is_verified`
	return r.exec(ctx, query, domain.ErrNotVerifiedOrNotFound, email, pinHash, r.now().UTC())
}

func (r *AccountRepo) Ping(ctx context.Context) error {
	if err := r.pinger.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrPersistence, err)
	}
	return nil
}

// exec runs a single-row update and reports noMatch when no row qualified.
func (r *AccountRepo) exec(ctx context.Context, query string, noMatch error, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: db error: %w", domain.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", domain.ErrPersistence, err)
	}
	if n == 0 {
		return fmt.Errorf("update account: %w", noMatch)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
