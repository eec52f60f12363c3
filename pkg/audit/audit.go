package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the audit trail.
const (
	ActionLogin         = "login"
	ActionLogin2FA      = "login_2fa"
	ActionLogout        = "logout"
	ActionPasswordReset = "password_reset"
	Action2FAEnabled    = "2fa_enabled"
	Action2FADisabled   = "2fa_disabled"
)

// Event is one security-relevant action taken on an account.
type Event struct {
	ID        int64     `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder appends events to the audit trail. Recording failures are the
// caller's to handle; they must never fail the action being recorded.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}
