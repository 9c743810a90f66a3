package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/busfleet/opsproxy/internal/accounts"
)

// TokenTTL is the fixed session lifetime. Tokens are stateless: there is
// no server-side session store and no revocation before expiry.
const TokenTTL = 24 * time.Hour

type Claims struct {
	AccountID int           `json:"uid"`
	Email     string        `json:"email"`
	Role      accounts.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
	// injectable clock, so tests can issue already-expired tokens
	NowFunc func() time.Time
}

func NewTokenIssuer(signingSecret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		signingKey: []byte(signingSecret),
		ttl:        ttl,
		NowFunc:    time.Now,
	}
}

func (ti *TokenIssuer) Generate(account *accounts.Account) (string, error) {
	now := ti.NowFunc()
	claims := &Claims{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims.
// Any failure mode maps to ErrInvalidToken.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return ti.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type claimsContextKey struct{}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok
}
