package web

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(testSecret, "ops@example.com", []string{"acct-1"}, time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, []string{"acct-1"}, claims.Accounts)
	assert.True(t, claims.Allows("acct-1"))
	assert.False(t, claims.Allows("acct-2"))
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := IssueToken(testSecret, "ops", nil, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ops"},
	}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestUnscopedClaimsAllowEverything(t *testing.T) {
	c := &Claims{}
	assert.True(t, c.Allows("anything"))
}
