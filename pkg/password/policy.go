package password

import (
	"github.com/tegfinance/authcore/pkg/errors"
)

// Policy defines the requirements a new password must meet.
type Policy struct {
	MinLength int
}

// DefaultPolicy returns the policy applied when none is configured.
func DefaultPolicy() Policy {
	return Policy{MinLength: 8}
}

// Check verifies that a candidate password meets the policy. It is called
// before any hashing or account lookup so a rejected password does no work.
func (p Policy) Check(password string) error {
	if len(password) < p.MinLength {
		return errors.Newf(errors.ErrCodePasswordTooShort,
			"password must be at least %d characters", p.MinLength)
	}
	return nil
}
