package authflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tegfinance/authcore/pkg/account"
	"github.com/tegfinance/authcore/pkg/errors"
	"github.com/tegfinance/authcore/pkg/lockout"
	"github.com/tegfinance/authcore/pkg/password"
	"github.com/tegfinance/authcore/pkg/totp"
)

// Status is the outcome of a credential check.
type Status int

const (
	// StatusDenied means the credentials did not match. Unknown usernames
	// and wrong passwords are indistinguishable to the caller.
	StatusDenied Status = iota
	// StatusLocked means the account is temporarily locked out.
	StatusLocked
	// StatusTwoFactorRequired means the password matched but the account
	// requires a one-time code before it is authenticated.
	StatusTwoFactorRequired
	// StatusAuthenticated means the caller may establish a session.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLocked:
		return "locked"
	case StatusTwoFactorRequired:
		return "two_factor_required"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "denied"
	}
}

// Result is the gateway's decision. It never carries credentials and the
// gateway itself never issues sessions; that stays with the caller.
type Result struct {
	Status Status
	// Account is set when Status is Authenticated or TwoFactorRequired.
	Account account.Account
	// AttemptsRemaining is set when Status is Denied for a known account.
	AttemptsRemaining int32
	// LockedUntil is set when Status is Locked.
	LockedUntil *time.Time
}

// AuthenticateParams carries one login attempt.
type AuthenticateParams struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// Gateway runs the login state machine over the account store, the
// lockout policy and the second-factor verifier.
type Gateway struct {
	accounts account.Repository
	hasher   password.Hasher
	policy   lockout.Policy
	codes    *totp.Service
	now      func() time.Time
}

func NewGateway(accounts account.Repository, hasher password.Hasher, policy lockout.Policy, codes *totp.Service) *Gateway {
	return &Gateway{
		accounts: accounts,
		hasher:   hasher,
		policy:   policy,
		codes:    codes,
		now:      time.Now,
	}
}

// Authenticate checks a username and password and decides what happens
// next. The lock is checked before the password so a locked account
// leaks nothing about whether the submitted password was right. An
// unknown or deactivated username produces a plain denial and writes
// nothing.
func (g *Gateway) Authenticate(ctx context.Context, arg AuthenticateParams) (Result, error) {
	now := g.now().UTC()

	acct, err := g.accounts.GetByUsername(ctx, arg.Username)
	if err != nil {
		if err == account.ErrNotFound {
			return Result{Status: StatusDenied}, nil
		}
		return Result{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to look up account")
	}
	if !acct.IsActive {
		return Result{Status: StatusDenied}, nil
	}

	if g.policy.IsLocked(acct, now) {
		lockedUntil := *acct.LockedUntil
		return Result{Status: StatusLocked, LockedUntil: &lockedUntil}, nil
	}

	if !g.hasher.Verify(arg.Password, acct.PasswordHash) {
		return g.recordFailure(ctx, acct, now)
	}

	if acct.TOTPEnabled {
		// The attempt counter stays as it is until the second factor
		// verifies too.
		return Result{Status: StatusTwoFactorRequired, Account: acct}, nil
	}

	if err := g.accounts.ResetLoginAttempts(ctx, acct.ID); err != nil {
		return Result{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to reset attempt counter")
	}
	return Result{Status: StatusAuthenticated, Account: acct}, nil
}

// recordFailure bumps the attempt counter in one storage round trip and
// reports whether this failure tripped the lock. Two racing failures
// both land; neither overwrites the other's increment.
func (g *Gateway) recordFailure(ctx context.Context, acct account.Account, now time.Time) (Result, error) {
	res, err := g.accounts.RecordFailedAttempt(ctx, account.FailedAttemptParams{
		ID:        acct.ID,
		Threshold: g.policy.MaxFailedAttempts,
		LockUntil: g.policy.LockTime(now),
	})
	if err != nil {
		return Result{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to record login failure")
	}

	locked, remaining := g.policy.Evaluate(res.Attempts)
	if locked {
		slog.Warn("account locked after repeated failures",
			"account_id", acct.ID, "attempts", res.Attempts)
		return Result{Status: StatusLocked, LockedUntil: res.LockedUntil}, nil
	}
	return Result{Status: StatusDenied, AttemptsRemaining: remaining}, nil
}

// CompleteSecondFactor verifies a one-time code for an account that
// passed the password check. A wrong code is a plain denial and does not
// feed the lockout counter; a correct one clears it.
func (g *Gateway) CompleteSecondFactor(ctx context.Context, accountID uuid.UUID, code string) (Result, error) {
	acct, err := g.accounts.GetByID(ctx, accountID)
	if err != nil {
		if err == account.ErrNotFound {
			return Result{Status: StatusDenied}, nil
		}
		return Result{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to look up account")
	}
	if !acct.IsActive || !acct.TOTPEnabled || acct.TOTPSecret == nil {
		return Result{Status: StatusDenied}, nil
	}

	if !g.codes.VerifyCode(*acct.TOTPSecret, code, g.now().UTC()) {
		return Result{Status: StatusDenied}, nil
	}

	if err := g.accounts.ResetLoginAttempts(ctx, acct.ID); err != nil {
		return Result{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to reset attempt counter")
	}
	return Result{Status: StatusAuthenticated, Account: acct}, nil
}
