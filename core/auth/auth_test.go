package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("", hash))
	assert.False(t, VerifyPassword("s3cret", ""))
}

func TestHashPasswordRejectsInvalid(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = HashPassword(strings.Repeat("a", maxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = HashPassword(strings.Repeat("a", maxPasswordBytes))
	assert.NoError(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)
	token, err := ti.GenerateToken(42, "shriram")
	require.NoError(t, err)

	claims, err := ti.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "shriram", claims.Username)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseTokenRejects(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)
	token, err := ti.GenerateToken(1, "a")
	require.NoError(t, err)

	other := NewTokenIssuer("other-secret", time.Hour)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = ti.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.GenerateToken(1, "a")
	require.NoError(t, err)
	_, err = ti.ParseToken(old)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ti.ParseToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")
}
