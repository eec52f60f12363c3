package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the amount of random material behind a generated token.
// 32 bytes gives 256 bits of entropy.
const TokenBytes = 32

// GenerateSecureToken returns a URL-safe random token backed by n bytes
// read from crypto/rand.
func GenerateSecureToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
