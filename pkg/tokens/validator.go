package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

// Validator verifies access credentials without calling the issuer. It is
// safe for concurrent use.
type Validator struct {
	Secret   []byte
	Issuer   string
	Audience string
	Now      func() time.Time
}

func (v Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Validate checks signature, issuer, audience and expiry, in that order, and
// returns the claims. The returned error wraps ErrInvalidToken and the jwt
// cause, so callers can test for jwt.ErrTokenExpired.
func (v Validator) Validate(raw string) (*AccessClaims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.Issuer),
		jwt.WithAudience(v.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	var claims AccessClaims
	tkn, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return &claims, nil
}
