// Package tokens defines the access credential shared by every service: its
// claim set, how the auth service signs it and how resource services verify
// it locally with the shared HMAC secret.
package tokens

import (
	"encoding/json"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// RoleList is the "role" claim. A single role is encoded as a plain string
// and several roles as an array; both forms are accepted when decoding.
type RoleList []string

func (r RoleList) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]string(r))
}

func (r *RoleList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*r = RoleList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*r = many
	return nil
}

// AccessClaims is the signed claim set of an access credential. The role
// set is a snapshot taken at issuance.
type AccessClaims struct {
	UniqueName string   `json:"unique_name"`
	Email      string   `json:"email"`
	Roles      RoleList `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether at least one of roles was granted.
func (c *AccessClaims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}
