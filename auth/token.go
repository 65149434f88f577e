// Package auth validates identity tokens issued by the external
// identity provider and carries the resulting identity through request
// contexts. Token issuance lives outside this platform; Generate exists
// for tests and local setups.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chathub/domain"
	"chathub/errors"
)

// Claims is the data stored inside the JWT.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) Tokens {
	return Tokens{secret: []byte(secret), ttl: ttl}
}

// Generate creates a signed JWT for an identity.
func (t Tokens) Generate(identity domain.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   identity.ID,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "chathub",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate checks the signature and expiration and returns the identity
// the token was issued for.
func (t Tokens) Validate(raw string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return domain.Identity{}, errors.Wrap(errors.KindUnauthenticated, err, "invalid or expired token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Identity{}, errors.ErrUnauthenticated
	}
	return domain.Identity{ID: claims.UserID, Username: claims.Username}, nil
}
