package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tegfinance/authcore/pkg/errors"
	"github.com/tegfinance/authcore/pkg/utils"
)

const (
	DefaultLifetime = 24 * time.Hour

	// maxUserAgentLen bounds what gets stored from the User-Agent header.
	maxUserAgentLen = 500
)

// Manager issues, resolves and revokes sessions on top of a Repository.
type Manager struct {
	sessions Repository
	lifetime time.Duration
	now      func() time.Time
}

func NewManager(sessions Repository, lifetime time.Duration) *Manager {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Manager{
		sessions: sessions,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Lifetime returns the configured session lifetime.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

// Issue creates a session for the account and returns it with its token.
// The token is freshly generated random material, never derived from
// account data.
func (m *Manager) Issue(ctx context.Context, accountID uuid.UUID, ipAddress, userAgent string) (Session, error) {
	token, err := utils.GenerateSecureToken(utils.TokenBytes)
	if err != nil {
		return Session{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to generate session token")
	}

	now := m.now().UTC()
	s, err := m.sessions.Create(ctx, CreateSessionParams{
		AccountID:    accountID,
		Token:        token,
		IPAddress:    ipAddress,
		UserAgent:    utils.TruncateString(userAgent, maxUserAgentLen),
		ExpiresAt:    now.Add(m.lifetime),
		LastActivity: now,
	})
	if err != nil {
		return Session{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to create session")
	}
	return s, nil
}

// Resolve maps a token to its live session and records the activity.
// Unknown, expired and deactivated-account tokens all produce the same
// session-not-found error.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, errors.New(errors.ErrCodeSessionNotFound, "session not found")
	}

	now := m.now().UTC()
	s, err := m.sessions.GetLiveByToken(ctx, token, now)
	if err != nil {
		return Session{}, errors.New(errors.ErrCodeSessionNotFound, "session not found")
	}

	if err := m.sessions.Touch(ctx, s.ID, now); err != nil {
		// A failed activity bump does not invalidate the session.
		slog.Warn("failed to record session activity", "session_id", s.ID, "error", err)
	}
	s.LastActivity = now
	return s, nil
}

// Revoke deletes the session behind the token. Revoking a token that no
// longer resolves is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.sessions.DeleteByToken(ctx, token); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to revoke session")
	}
	return nil
}

// RevokeAll deletes every session of the account and returns how many
// were removed.
func (m *Manager) RevokeAll(ctx context.Context, accountID uuid.UUID) (int64, error) {
	n, err := m.sessions.DeleteAllByAccount(ctx, accountID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to revoke sessions")
	}
	return n, nil
}

// Sweep removes sessions that have passed their expiry.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	n, err := m.sessions.DeleteExpired(ctx, m.now().UTC())
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to delete expired sessions")
	}
	return n, nil
}

// RunCleanup sweeps expired sessions on the given interval until the
// context is cancelled. Expiry is already enforced at resolution time,
// so the sweep only reclaims storage.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if err != nil {
				slog.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("removed expired sessions", "count", n)
			}
		}
	}
}
