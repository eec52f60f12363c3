package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated browser session. The token is the only
// credential: opaque random bytes handed to the client in a cookie and
// matched verbatim on every request.
type Session struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	Token        string    `json:"-"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}

// CreateSessionParams carries the fields the caller supplies when a new
// session is persisted.
type CreateSessionParams struct {
	AccountID    uuid.UUID
	Token        string
	IPAddress    string
	UserAgent    string
	ExpiresAt    time.Time
	LastActivity time.Time
}
