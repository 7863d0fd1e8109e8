// ABOUTME: Bearer token authentication for the REST API
// ABOUTME: Verifies HS256 tokens and scopes requests to the accounts a token names
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/harperreed/orgmap/models"
)

// Claims identify the caller. An empty Accounts list grants every account.
type Claims struct {
	Accounts []string `json:"accounts,omitempty"`
	jwt.RegisteredClaims
}

// Allows reports whether the token may touch accountID.
func (c *Claims) Allows(accountID string) bool {
	if len(c.Accounts) == 0 {
		return true
	}
	for _, a := range c.Accounts {
		if a == accountID {
			return true
		}
	}
	return false
}

// IssueToken signs a token for subject valid for ttl.
func IssueToken(secret []byte, subject string, accounts []string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Accounts: accounts,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "orgmap",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a signed token and returns its claims.
func ParseToken(secret []byte, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

type claimsKey struct{}

func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			_ = WriteError(w, http.StatusUnauthorized, "unauthenticated", "missing Authorization header", nil)
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			_ = WriteError(w, http.StatusUnauthorized, "unauthenticated", "invalid Authorization header format", nil)
			return
		}
		claims, err := ParseToken(s.secret, token)
		if err != nil {
			_ = WriteError(w, http.StatusUnauthorized, "unauthenticated", "invalid token", nil)
			return
		}
		if rec, ok := w.(*statusRecorder); ok {
			rec.subject = claims.Subject
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

// authorize writes 403 and returns false when the caller's token does not
// cover accountID.
func authorize(w http.ResponseWriter, r *http.Request, accountID string) bool {
	c := claimsFrom(r.Context())
	if c == nil || c.Allows(accountID) {
		return true
	}
	_ = WriteError(w, http.StatusForbidden, "forbidden",
		fmt.Sprintf("token is not valid for account %s", accountID), map[string]string{"accountId": accountID})
	return false
}

// visibleAccounts filters accounts to those the caller may see.
func visibleAccounts(r *http.Request, accounts []models.Account) []models.Account {
	c := claimsFrom(r.Context())
	if c == nil || len(c.Accounts) == 0 {
		return accounts
	}
	out := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		if c.Allows(a.ID) {
			out = append(out, a)
		}
	}
	return out
}
