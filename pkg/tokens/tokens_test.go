package tokens

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret-0123456789abcdef")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newPair(now time.Time) (Signer, Validator) {
	s := Signer{
		Secret:   testSecret,
		Issuer:   "microshop-auth",
		Audience: "microshop",
		TTL:      15 * time.Minute,
		Now:      fixedClock(now),
	}
	v := Validator{
		Secret:   testSecret,
		Issuer:   "microshop-auth",
		Audience: "microshop",
		Now:      fixedClock(now),
	}
	return s, v
}

func payload(t *testing.T, token string) map[string]any {
	t.Helper()

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestSigner_Sign_ClaimNames(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	s, _ := newPair(now)
	id := uuid.NewString()

	token, exp, err := s.Sign(Identity{AccountID: id, Username: "alice", Email: "a@x.com", Roles: []string{"User"}})
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(15*time.Minute), exp, time.Second)

	m := payload(t, token)
	assert.Equal(t, id, m["sub"])
	assert.Equal(t, "alice", m["unique_name"])
	assert.Equal(t, "a@x.com", m["email"])
	assert.Equal(t, "User", m["role"])
	assert.Equal(t, "microshop-auth", m["iss"])
	assert.NotEmpty(t, m["jti"])
	assert.Contains(t, m, "exp")
	assert.Contains(t, m, "aud")
}

func TestSigner_Sign_MultipleRolesEncodeAsArray(t *testing.T) {
	t.Parallel()

	s, v := newPair(time.Now())
	token, _, err := s.Sign(Identity{AccountID: uuid.NewString(), Username: "root", Email: "r@x.com", Roles: []string{"Admin", "User"}})
	require.NoError(t, err)

	assert.Equal(t, []any{"Admin", "User"}, payload(t, token)["role"])

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole("Admin"))
	assert.True(t, claims.HasAnyRole("Guest", "User"))
	assert.False(t, claims.HasRole("Guest"))
}

func TestSigner_Sign_FreshJTIPerIssuance(t *testing.T) {
	t.Parallel()

	s, v := newPair(time.Now())
	id := Identity{AccountID: uuid.NewString(), Username: "bob", Email: "b@x.com", Roles: []string{"User"}}

	t1, _, err := s.Sign(id)
	require.NoError(t, err)
	t2, _, err := s.Sign(id)
	require.NoError(t, err)

	c1, err := v.Validate(t1)
	require.NoError(t, err)
	c2, err := v.Validate(t2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestValidator_Validate_RoundTrip(t *testing.T) {
	t.Parallel()

	s, v := newPair(time.Now())
	id := uuid.NewString()
	token, _, err := s.Sign(Identity{AccountID: id, Username: "alice", Email: "a@x.com", Roles: []string{"User"}})
	require.NoError(t, err)

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Subject)
	assert.Equal(t, "alice", claims.UniqueName)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, RoleList{"User"}, claims.Roles)
}

func TestValidator_Validate_Rejections(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s, v := newPair(now)
	good, _, err := s.Sign(Identity{AccountID: uuid.NewString(), Username: "alice", Email: "a@x.com", Roles: []string{"User"}})
	require.NoError(t, err)

	wrongSecret := s
	wrongSecret.Secret = []byte("another-secret-0123456789abcdefgh")
	forged, _, err := wrongSecret.Sign(Identity{AccountID: uuid.NewString(), Username: "mallory", Roles: []string{"Admin"}})
	require.NoError(t, err)

	wrongIssuer := s
	wrongIssuer.Issuer = "someone-else"
	badIss, _, err := wrongIssuer.Sign(Identity{AccountID: uuid.NewString(), Username: "alice"})
	require.NoError(t, err)

	wrongAudience := s
	wrongAudience.Audience = "billing"
	badAud, _, err := wrongAudience.Sign(Identity{AccountID: uuid.NewString(), Username: "alice"})
	require.NoError(t, err)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "microshop-auth",
			Audience:  jwt.ClaimStrings{"microshop"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	badAlg, err := hs512.SignedString(testSecret)
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  uuid.NewString(),
			Issuer:   "microshop-auth",
			Audience: jwt.ClaimStrings{"microshop"},
		},
	})
	missingExp, err := noExp.SignedString(testSecret)
	require.NoError(t, err)

	goodParts := strings.Split(good, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := goodParts[0] + "." + goodParts[1] + "." + forgedParts[2]

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "tampered", token: tampered},
		{name: "wrong secret", token: forged},
		{name: "wrong issuer", token: badIss},
		{name: "wrong audience", token: badAud},
		{name: "other algorithm", token: badAlg},
		{name: "missing expiry", token: missingExp},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := v.Validate(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidator_Validate_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Now().Add(-time.Hour)
	s, _ := newPair(issuedAt)
	token, _, err := s.Sign(Identity{AccountID: uuid.NewString(), Username: "alice", Roles: []string{"User"}})
	require.NoError(t, err)

	_, v := newPair(issuedAt.Add(16 * time.Minute))
	claims, err := v.Validate(token)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRoleList_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var r RoleList
	require.NoError(t, json.Unmarshal([]byte(`"Admin"`), &r))
	assert.Equal(t, RoleList{"Admin"}, r)

	require.NoError(t, json.Unmarshal([]byte(`["Admin","User"]`), &r))
	assert.Equal(t, RoleList{"Admin", "User"}, r)

	require.NoError(t, json.Unmarshal([]byte(`null`), &r))
	assert.Nil(t, r)

	assert.Error(t, json.Unmarshal([]byte(`42`), &r))
}
