package middleware

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier decides whether a credential cookie counts as a session at
// the edge.
type TokenVerifier interface {
	Verify(token string) bool
}

// PresenceVerifier accepts any non-empty credential. It is the default edge
// behaviour: fast and approximate, with the route guard as the authority.
type PresenceVerifier struct{}

func (PresenceVerifier) Verify(token string) bool { return token != "" }

// HS256Verifier accepts only well-formed, unexpired HS256 JWTs signed with
// the shared secret.
type HS256Verifier struct {
	secret []byte
	leeway time.Duration
}

func NewHS256Verifier(secret string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret), leeway: 30 * time.Second}
}

func (v *HS256Verifier) Verify(token string) bool {
	if token == "" {
		return false
	}
	tkn, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	)
	return err == nil && tkn.Valid
}

// NewTokenVerifier picks the verifying mode when secret is set and the
// presence check otherwise.
func NewTokenVerifier(secret string) TokenVerifier {
	if secret == "" {
		return PresenceVerifier{}
	}
	return NewHS256Verifier(secret)
}
