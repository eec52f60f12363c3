package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no live session matches a token. Expired
// sessions and sessions of deactivated accounts are reported the same
// way as tokens that never existed.
var ErrNotFound = errors.New("session not found")

// Repository defines session persistence operations
type Repository interface {
	Create(ctx context.Context, arg CreateSessionParams) (Session, error)
	// GetLiveByToken resolves a token to a session that has not expired
	// as of now and whose account is still active.
	GetLiveByToken(ctx context.Context, token string, now time.Time) (Session, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteAllByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
