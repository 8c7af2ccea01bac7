package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is what the issuer knows about an account at signing time.
type Identity struct {
	AccountID string
	Username  string
	Email     string
	Roles     []string
}

type Signer struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	Now      func() time.Time
}

func (s Signer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Sign mints an HS256 access credential for id with a fresh jti.
func (s Signer) Sign(id Identity) (string, time.Time, error) {
	exp := s.now().Add(s.TTL).UTC()
	claims := AccessClaims{
		UniqueName: id.Username,
		Email:      id.Email,
		Roles:      RoleList(id.Roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.AccountID,
			ID:        uuid.NewString(),
			Issuer:    s.Issuer,
			Audience:  jwt.ClaimStrings{s.Audience},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}
