package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account keeps username and email as typed. Uniqueness and lookups go
// through the Normalized* columns, so "Alice" and "alice" are one user.
type Account struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Username           string    `gorm:"not null"                  json:"username"`
	NormalizedUsername string    `gorm:"uniqueIndex;not null"      json:"-"`
	Email              string    `gorm:"not null"                  json:"email"`
	NormalizedEmail    string    `gorm:"uniqueIndex;not null"      json:"-"`
	PasswordHash       string    `gorm:"not null"                  json:"-"`
	Address            *string   `json:"address,omitempty"`
	Roles              []Role    `gorm:"many2many:account_roles;"  json:"roles,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Normalize is the lookup form of a username or email.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SetIdentity sets username and email together with their normalized forms.
func (a *Account) SetIdentity(username, email string) {
	a.Username = username
	a.Email = email
	a.NormalizedUsername = Normalize(username)
	a.NormalizedEmail = Normalize(email)
}

type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

// RefreshToken is the persisted record of an opaque refresh credential. Only
// the sha256 of the token is stored. Records are never deleted; Revoked only
// ever goes from false to true.
type RefreshToken struct {
	ID         uint       `gorm:"primaryKey"               json:"id"`
	TokenHash  string     `gorm:"uniqueIndex;not null"     json:"-"`
	AccountID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"accountId"`
	ExpiresAt  int64      `gorm:"not null"                 json:"expiresAt"`
	Revoked    bool       `gorm:"not null;default:false"   json:"revoked"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	ReplacedBy string     `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// IssuedRefresh is a freshly created refresh credential. Token is the only
// place the plain value exists.
type IssuedRefresh struct {
	Token     string
	AccountID uuid.UUID
	ExpiresAt time.Time
}

func All() []any {
	return []any{&Role{}, &Account{}, &RefreshToken{}}
}
