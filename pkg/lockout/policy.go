package lockout

import (
	"time"

	"github.com/tegfinance/authcore/pkg/account"
)

const (
	DefaultMaxFailedAttempts = 5
	DefaultLockoutDuration   = 30 * time.Minute
)

// Policy decides when repeated authentication failures lock an account
// and for how long. It is pure computation; the repositories apply the
// resulting state transitions.
type Policy struct {
	MaxFailedAttempts int32
	LockoutDuration   time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxFailedAttempts: DefaultMaxFailedAttempts,
		LockoutDuration:   DefaultLockoutDuration,
	}
}

// IsLocked reports whether the account is locked at the given instant.
// A lock expires passively: once now reaches LockedUntil the account is
// usable again without any state change.
func (p Policy) IsLocked(acct account.Account, now time.Time) bool {
	return acct.LockedUntil != nil && now.Before(*acct.LockedUntil)
}

// LockTime returns the instant a lock imposed now would expire.
func (p Policy) LockTime(now time.Time) time.Time {
	return now.Add(p.LockoutDuration)
}

// Evaluate maps a failed attempt count onto the lock decision: whether
// the threshold is reached and, if not, how many attempts remain.
func (p Policy) Evaluate(attempts int32) (locked bool, remaining int32) {
	if attempts >= p.MaxFailedAttempts {
		return true, 0
	}
	return false, p.MaxFailedAttempts - attempts
}
