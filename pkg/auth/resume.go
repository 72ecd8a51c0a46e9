package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens issues and verifies resume tokens: short proofs that a
// connection once owned a display name. A reconnecting client presents
// one to re-claim its name ahead of the dead connection's cleanup.
type Tokens struct{ secret []byte }

// New creates a new token signer/verifier.
func New(secret string) *Tokens { return &Tokens{secret: []byte(secret)} }

// Issue creates a token for name with the given TTL
func (t *Tokens) Issue(name string, ttl time.Duration) (string, error) {
	if name == "" {
		return "", errors.New("empty name")
	}
	claims := jwt.MapClaims{
		"sub": strings.ToLower(name),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// Verify checks a token and returns the owned name (lowercased)
func (t *Tokens) Verify(tok string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", err
	}
	name, _ := claims["sub"].(string)
	if name == "" {
		return "", errors.New("no sub")
	}
	return name, nil
}
