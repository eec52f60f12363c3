package totp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tegfinance/authcore/pkg/account"
	"github.com/tegfinance/authcore/pkg/errors"
)

// Enrollment drives the two-step activation of a second factor: Setup
// provisions a secret in a pending state, Enable commits it only after
// the caller proves the authenticator produces matching codes.
type Enrollment struct {
	accounts account.Repository
	codes    *Service
}

func NewEnrollment(accounts account.Repository, codes *Service) *Enrollment {
	return &Enrollment{accounts: accounts, codes: codes}
}

// Setup generates a pending secret for the account and returns it along
// with the provisioning URI. Calling Setup again before Enable replaces
// the pending secret; calling it on an already protected account fails.
func (e *Enrollment) Setup(ctx context.Context, accountID uuid.UUID) (secret, uri string, err error) {
	acct, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", "", errors.Wrap(err, errors.ErrCodeNotFound, "account not found")
	}
	if acct.TOTPEnabled {
		return "", "", errors.New(errors.ErrCode2FAAlreadySetup, "two-factor authentication is already enabled")
	}

	secret, uri, err = e.codes.GenerateSecret(acct.Username)
	if err != nil {
		return "", "", errors.Wrap(err, errors.ErrCodeInternal, "failed to generate secret")
	}

	if err := e.accounts.UpdateTOTP(ctx, accountID, &secret, false); err != nil {
		return "", "", errors.Wrap(err, errors.ErrCodeInternal, "failed to store pending secret")
	}
	return secret, uri, nil
}

// Enable turns the pending secret into an active second factor once the
// submitted code verifies against it. A wrong code leaves the pending
// secret in place so the user can retry with the same QR.
func (e *Enrollment) Enable(ctx context.Context, accountID uuid.UUID, code string, now time.Time) error {
	acct, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeNotFound, "account not found")
	}
	if acct.TOTPEnabled {
		return errors.New(errors.ErrCode2FAAlreadySetup, "two-factor authentication is already enabled")
	}
	if acct.TOTPSecret == nil {
		return errors.New(errors.ErrCode2FANotInitiated, "two-factor setup has not been started")
	}

	if !e.codes.VerifyCode(*acct.TOTPSecret, code, now) {
		return errors.New(errors.ErrCode2FAInvalid, "invalid verification code")
	}

	if err := e.accounts.UpdateTOTP(ctx, accountID, acct.TOTPSecret, true); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to enable second factor")
	}
	return nil
}

// Disable removes the second factor, clearing both the secret and the
// enabled flag. Disabling an account without a second factor is a no-op.
func (e *Enrollment) Disable(ctx context.Context, accountID uuid.UUID) error {
	if _, err := e.accounts.GetByID(ctx, accountID); err != nil {
		return errors.Wrap(err, errors.ErrCodeNotFound, "account not found")
	}
	if err := e.accounts.UpdateTOTP(ctx, accountID, nil, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to disable second factor")
	}
	return nil
}
