package config

import "time"

// SessionConfig contains session lifetime and cookie settings.
type SessionConfig struct {
	// Lifetime is how long an issued session stays valid.
	Lifetime time.Duration `env:"SESSION_LIFETIME" env-default:"24h"`

	// CleanupInterval is how often expired session rows are swept.
	// Sweeping is housekeeping only; lookups never return expired rows.
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" env-default:"1h"`

	CookieName     string `env:"SESSION_COOKIE_NAME" env-default:"teg_session"`
	CookieHttpOnly bool   `env:"SESSION_COOKIE_HTTP_ONLY" env-default:"true"`

	// CookieSecure should be true everywhere TLS terminates in front of
	// the service; it defaults off for local development.
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" env-default:"false"`
}
