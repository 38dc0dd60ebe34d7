package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify(t *testing.T) {
	secret := []byte("test-secret")

	tok, err := Issue(secret, 42, time.Hour)
	require.NoError(t, err)

	id, err := Verify(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = Verify([]byte("other-secret"), tok)
	assert.Error(t, err)
}

func TestVerifyRejects(t *testing.T) {
	secret := []byte("test-secret")

	expired, err := Issue(secret, 1, -time.Minute)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  Issuer,
		Subject: "1",
	}).SignedString(secret)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":     expired,
		"no expiry":   noExpiry,
		"bad subject": badSubject,
		"garbage":     "not.a.token",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Verify(secret, tok)
			assert.Error(t, err)
		})
	}

	_, err = Issue(nil, 1, time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}
