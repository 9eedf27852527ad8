package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "task-manager"

// Claims defines JWT payload.
type Claims struct {
	AccountID string `json:"account_id"`
	jwtlib.RegisteredClaims
}

// GenerateToken issues a signed JWT for accountID. Every token carries a fresh ID so two
// tokens issued in the same second never collide. A zero ttl issues a token without expiry.
func GenerateToken(accountID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   issuer,
			Subject:  accountID,
			IssuedAt: jwtlib.NewNumericDate(now),
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwtlib.NewNumericDate(now.Add(ttl))
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates and extracts claims from token.
func Parse(token string, secret string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}), jwtlib.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.AccountID == "" {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	return claims, nil
}
