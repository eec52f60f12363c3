package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 10))
	assert.Equal(t, "abc", TruncateString("abcdef", 3))
	assert.Equal(t, "", TruncateString("", 3))
	assert.Equal(t, "abc", TruncateString("abc", -1), "negative max means no limit")
}

func TestGenerateSecureToken(t *testing.T) {
	token, err := GenerateSecureToken(TokenBytes)
	require.NoError(t, err)
	assert.Len(t, token, 43, "32 bytes base64url without padding")
	assert.NotContains(t, token, "=")
	assert.False(t, strings.ContainsAny(token, "+/"), "token must be URL safe")

	other, err := GenerateSecureToken(TokenBytes)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
