// Package auth verifies the signed handshake tokens clients present when
// opening a socket connection. Tokens are HMAC-signed JWTs carrying an
// expiry; the server checks signature and expiry against its secret and
// nothing else. Token issuance belongs to the account service and is not
// part of this server.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken     = errors.New("auth: missing token")
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrExpired          = errors.New("auth: token expired")
)

// Verifier checks handshake tokens against a shared HMAC secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the token's signature and expiry. It returns
// ErrMissingToken, ErrInvalidSignature or ErrExpired; any other parse
// failure is reported as an invalid signature.
func (v *Verifier) Verify(token string) error {
	if token == "" {
		return ErrMissingToken
	}

	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrInvalidSignature
	}
}

// Sign issues a token valid for the given duration. The server only ever
// verifies tokens; Sign exists for tests and local tooling.
func Sign(secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
