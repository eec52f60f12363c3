package password

// Hasher defines the interface for one-way password hashing implementations.
type Hasher interface {
	// Hash hashes a plaintext password.
	Hash(password string) (string, error)

	// Verify reports whether the plaintext matches the stored hash. It
	// returns false for malformed or empty hashes rather than an error, so
	// a caller cannot distinguish a format failure from a wrong password.
	Verify(password, hashedPassword string) bool
}
