package totp

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	DefaultIssuer = "TEG Finance Admin"
	DefaultPeriod = 30
	DefaultSkew   = 1
)

// Service generates and validates time-based one-time passwords.
// Codes are 6-digit SHA1 over 30-second steps, which is what every
// mainstream authenticator app produces by default.
type Service struct {
	issuer string
	period uint
	skew   uint
}

func NewService(issuer string, period, skew uint) *Service {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if period == 0 {
		period = DefaultPeriod
	}
	return &Service{issuer: issuer, period: period, skew: skew}
}

// GenerateSecret creates a fresh base32 secret for the given account name
// and the otpauth:// provisioning URI that encodes it.
func (s *Service) GenerateSecret(accountName string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
		Period:      s.period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// VerifyCode checks a submitted code against the secret at the given
// instant, accepting codes from the adjacent time steps to absorb clock
// drift between server and authenticator. Empty inputs never verify.
func (s *Service) VerifyCode(secret, code string, now time.Time) bool {
	if secret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    s.period,
		Skew:      s.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}
