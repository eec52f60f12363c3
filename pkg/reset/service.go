package reset

import (
	"context"
	"log/slog"
	"time"

	"github.com/tegfinance/authcore/pkg/account"
	"github.com/tegfinance/authcore/pkg/errors"
	"github.com/tegfinance/authcore/pkg/password"
	"github.com/tegfinance/authcore/pkg/session"
	"github.com/tegfinance/authcore/pkg/utils"
)

const DefaultTokenExpiry = time.Hour

// Notifier delivers a reset token to the account owner. Delivery is out
// of scope here; the server wires in whatever transport it has.
type Notifier interface {
	SendResetToken(ctx context.Context, email, token string) error
}

// LogNotifier logs the reset request instead of delivering it. It is the
// default when no mail transport is configured; the token itself never
// reaches the log.
type LogNotifier struct{}

func (LogNotifier) SendResetToken(ctx context.Context, email, token string) error {
	slog.Info("password reset token issued", "email", email)
	return nil
}

// Service implements the password reset flow: a random single-use token
// with a bounded lifetime, redeemable once for a new password.
type Service struct {
	accounts account.Repository
	sessions *session.Manager
	hasher   password.Hasher
	policy   password.Policy
	expiry   time.Duration
	notifier Notifier
	now      func() time.Time
}

func NewService(accounts account.Repository, sessions *session.Manager, hasher password.Hasher, policy password.Policy, expiry time.Duration, notifier Notifier) *Service {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Service{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		policy:   policy,
		expiry:   expiry,
		notifier: notifier,
		now:      time.Now,
	}
}

// Request starts a reset for the address. It succeeds whether or not the
// address belongs to an account, so the endpoint cannot be used to probe
// which emails are registered. A repeated request overwrites any token
// issued earlier.
func (s *Service) Request(ctx context.Context, email string) error {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if err == account.ErrNotFound {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to look up account")
	}

	token, err := utils.GenerateSecureToken(utils.TokenBytes)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to generate reset token")
	}

	expires := s.now().UTC().Add(s.expiry)
	if err := s.accounts.SetResetToken(ctx, acct.ID, token, expires); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to store reset token")
	}

	if err := s.notifier.SendResetToken(ctx, acct.Email, token); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to deliver reset token")
	}
	return nil
}

// Redeem exchanges a valid token for a new password. The token is
// consumed and every session of the account is revoked, including the
// one of whoever performed the reset. Expired, consumed and unknown
// tokens are rejected with the same error.
func (s *Service) Redeem(ctx context.Context, token, newPassword string) (account.Account, error) {
	if err := s.policy.Check(newPassword); err != nil {
		return account.Account{}, err
	}

	acct, err := s.accounts.GetByValidResetToken(ctx, token, s.now().UTC())
	if err != nil {
		if err == account.ErrNotFound {
			return account.Account{}, errors.New(errors.ErrCodeResetTokenInvalid, "invalid or expired reset token")
		}
		return account.Account{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to look up reset token")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return account.Account{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
	}

	if err := s.accounts.UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
		return account.Account{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to update password")
	}

	if n, err := s.sessions.RevokeAll(ctx, acct.ID); err != nil {
		return account.Account{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to revoke sessions")
	} else if n > 0 {
		slog.Info("revoked sessions after password reset", "account_id", acct.ID, "count", n)
	}

	return acct, nil
}
