package config

import "time"

// LoginConfig contains brute-force lockout settings.
type LoginConfig struct {
	// MaxFailedAttempts is the number of consecutive failed password
	// verifications after which an account is locked.
	MaxFailedAttempts int `env:"LOGIN_MAX_FAILED_ATTEMPTS" env-default:"5"`

	// LockoutDuration is how long a locked account rejects all attempts.
	LockoutDuration time.Duration `env:"LOGIN_LOCKOUT_DURATION" env-default:"30m"`
}

// PasswordConfig contains hashing and policy settings.
type PasswordConfig struct {
	// BcryptCost applies to every new hash so all stored hashes are
	// comparably expensive to attack.
	BcryptCost int `env:"PASSWORD_BCRYPT_COST" env-default:"12"`

	MinLength int `env:"PASSWORD_MIN_LENGTH" env-default:"8"`
}

// ResetConfig contains password-reset token settings.
type ResetConfig struct {
	TokenExpiry time.Duration `env:"PASSWORD_RESET_EXPIRY" env-default:"1h"`
}

// TotpConfig contains time-based one-time code settings.
type TotpConfig struct {
	// Issuer is the label shown by authenticator apps.
	Issuer string `env:"TOTP_ISSUER" env-default:"TEG Finance Admin"`

	// Period is the code time step in seconds.
	Period uint `env:"TOTP_PERIOD" env-default:"30"`

	// Skew is the number of adjacent time steps accepted on either side
	// of the current one, absorbing clock drift between server and phone.
	Skew uint `env:"TOTP_SKEW" env-default:"1"`
}

// AdminConfig seeds the initial administrator account on an empty database.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME" env-default:"admin"`
	Email    string `env:"ADMIN_EMAIL" env-default:"admin@example.com"`
	Password string `env:"ADMIN_PASSWORD" env-default:"ChangeThisPassword123!"`
}
