package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/microshop/platform/pkg/apperr"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
	RoleGuest = "Guest"
)

// DefaultRoles are seeded into the role directory at startup.
var DefaultRoles = []string{RoleAdmin, RoleUser, RoleGuest}

// Refresh store failure reasons. All of them classify as
// apperr.ErrExpiredOrRevoked.
var (
	ErrRefreshNotFound = fmt.Errorf("%w: not_found", apperr.ErrExpiredOrRevoked)
	ErrRefreshExpired  = fmt.Errorf("%w: expired", apperr.ErrExpiredOrRevoked)
	ErrRefreshRevoked  = fmt.Errorf("%w: revoked", apperr.ErrExpiredOrRevoked)
)

// Reason returns the short label logged for a refresh failure.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrRefreshNotFound):
		return "not_found"
	case errors.Is(err, ErrRefreshExpired):
		return "expired"
	case errors.Is(err, ErrRefreshRevoked):
		return "revoked"
	}
	return "unknown"
}

// NewRefreshToken returns 32 random bytes, base64url encoded.
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func HashToken(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
