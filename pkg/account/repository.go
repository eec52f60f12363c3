package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by all lookups that match no account. Callers
// that must not leak account existence translate it into their own
// generic failure.
var ErrNotFound = errors.New("account not found")

// Repository defines the persistence contract the auth core consumes.
type Repository interface {
	// Lookups
	GetByUsername(ctx context.Context, username string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)

	// GetByValidResetToken matches an exact reset token whose expiry is
	// after now. An expired token and an unknown token are the same miss.
	GetByValidResetToken(ctx context.Context, token string, now time.Time) (Account, error)

	// RecordFailedAttempt increments the failure counter and, when the
	// incremented count reaches arg.Threshold, sets locked_until to
	// arg.LockUntil. The increment and the conditional lock are one
	// atomic update, so concurrent failures never lose increments.
	RecordFailedAttempt(ctx context.Context, arg FailedAttemptParams) (FailedAttemptResult, error)

	// ResetLoginAttempts zeroes the counter and clears any lock.
	ResetLoginAttempts(ctx context.Context, id uuid.UUID) error

	// UpdatePasswordHash replaces the password hash and clears the reset
	// token pair in the same write.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error

	// SetResetToken overwrites the reset token pair, invalidating any
	// previously issued token.
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error

	// UpdateTOTP stores the shared secret (nil clears it) and the enabled
	// flag together.
	UpdateTOTP(ctx context.Context, id uuid.UUID, secret *string, enabled bool) error

	// Create inserts a new account. Used by bootstrap and tests.
	Create(ctx context.Context, arg CreateAccountParams) (Account, error)

	// Count returns the number of accounts.
	Count(ctx context.Context) (int64, error)
}
