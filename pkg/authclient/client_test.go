package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LoginRefreshLogout(t *testing.T) {
	used := map[string]bool{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid username or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"jwtToken":"a1","refreshToken":"r1"}`))
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in["refreshToken"] != "r1" || used["r1"] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		used["r1"] = true
		_, _ = w.Write([]byte(`{"jwtToken":"a2","refreshToken":"r2"}`))
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"1","username":"alice","email":"a@x.com","roles":["User"]}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "wrong")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "invalid username or password")

	pair, err := c.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "r1", pair.RefreshToken)

	rotated, err := c.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "a2", rotated.AccessToken)

	_, err = c.Refresh(ctx, pair.RefreshToken)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	p, err := c.Profile(ctx, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"User"}, p.Roles)

	require.NoError(t, c.Logout(ctx, rotated.AccessToken, rotated.RefreshToken))
}

func TestClient_Register(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var in RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.Role != "User" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"invalid role"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"User registered successfully"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	msg, err := c.Register(ctx, RegisterRequest{Username: "alice", Email: "a@x.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", msg)

	_, err = c.Register(ctx, RegisterRequest{Username: "alice", Email: "a@x.com", Password: "secret1", Role: "Owner"})
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}
