package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is the persisted admin account referenced by the auth core.
// Optional columns are pointers; a nil LockedUntil means the account was
// never locked, while a past LockedUntil means a lock that has lapsed.
type Account struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`

	// PasswordHash is opaque to everything but the password hasher and is
	// replaced wholesale on password change.
	PasswordHash string `json:"-"`

	FailedLoginAttempts int32      `json:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`

	// TOTPSecret may be set while TOTPEnabled is still false: that is the
	// pending-enrollment state, waiting for one verified code.
	TOTPSecret  *string `json:"-"`
	TOTPEnabled bool    `json:"totp_enabled"`

	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAccountParams carries the fields needed to create an account.
type CreateAccountParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// FailedAttemptParams drives the atomic failure counter update. Threshold
// and LockUntil are passed in so the increment and the conditional lock
// land in one statement.
type FailedAttemptParams struct {
	ID        uuid.UUID
	Threshold int32
	LockUntil time.Time
}

// FailedAttemptResult reports the row state after the increment.
type FailedAttemptResult struct {
	Attempts    int32
	LockedUntil *time.Time
}
