package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL account repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const accountColumns = `
	id, username, email, password_hash,
	failed_login_attempts, locked_until,
	totp_secret, totp_enabled,
	password_reset_token, password_reset_expires,
	is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&a.FailedLoginAttempts,
		&a.LockedUntil,
		&a.TOTPSecret,
		&a.TOTPEnabled,
		&a.PasswordResetToken,
		&a.PasswordResetExpires,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("failed to scan account: %w", err)
	}
	return a, nil
}

// GetByUsername finds an account by username
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE username = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, username))
}

// GetByEmail finds an account by email
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

// GetByID finds an account by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetByValidResetToken finds an account by an unexpired reset token
func (r *PostgresRepository) GetByValidResetToken(ctx context.Context, token string, now time.Time) (Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts
		WHERE password_reset_token = $1 AND password_reset_expires > $2`
	return scanAccount(r.pool.QueryRow(ctx, query, token, now))
}

// RecordFailedAttempt increments the failure counter and conditionally sets
// the lock in a single UPDATE. The increment happens on the database side,
// so two concurrent failures produce two distinct counts.
func (r *PostgresRepository) RecordFailedAttempt(ctx context.Context, arg FailedAttemptParams) (FailedAttemptResult, error) {
	query := `
		UPDATE accounts
		SET failed_login_attempts = failed_login_attempts + 1,
			locked_until = CASE
				WHEN failed_login_attempts + 1 >= $2 THEN $3
				ELSE locked_until
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts, locked_until`

	var res FailedAttemptResult
	err := r.pool.QueryRow(ctx, query, arg.ID, arg.Threshold, arg.LockUntil).
		Scan(&res.Attempts, &res.LockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FailedAttemptResult{}, ErrNotFound
		}
		return FailedAttemptResult{}, fmt.Errorf("failed to record login attempt: %w", err)
	}
	return res, nil
}

// ResetLoginAttempts zeroes the counter and clears the lock
func (r *PostgresRepository) ResetLoginAttempts(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE accounts
		SET failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the password hash and clears the reset token
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $2,
			password_reset_token = NULL,
			password_reset_expires = NULL,
			updated_at = NOW()
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, passwordHash); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}

// SetResetToken overwrites the reset token pair
func (r *PostgresRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	query := `
		UPDATE accounts
		SET password_reset_token = $2, password_reset_expires = $3, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, token, expires); err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

// UpdateTOTP stores the shared secret and enabled flag together
func (r *PostgresRepository) UpdateTOTP(ctx context.Context, id uuid.UUID, secret *string, enabled bool) error {
	query := `
		UPDATE accounts
		SET totp_secret = $2, totp_enabled = $3, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, secret, enabled); err != nil {
		return fmt.Errorf("failed to update totp settings: %w", err)
	}
	return nil
}

// Create inserts a new account
func (r *PostgresRepository) Create(ctx context.Context, arg CreateAccountParams) (Account, error) {
	query := `
		INSERT INTO accounts (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING` + accountColumns

	return scanAccount(r.pool.QueryRow(ctx, query, arg.Username, arg.Email, arg.PasswordHash))
}

// Count returns the number of accounts
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}
