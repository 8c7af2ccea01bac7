package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/pkg/logging"
	"github.com/microshop/platform/pkg/tokens"
)

const (
	CtxClaims = "claims"
	CtxUserID = "user_id"
)

// BearerAuth authenticates requests carrying an access credential in the
// Authorization header. Validation is local: no call to the auth service.
type BearerAuth struct {
	Validator tokens.Validator
}

func NewBearerAuth(v tokens.Validator) *BearerAuth {
	return &BearerAuth{Validator: v}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

// RequireRole admits the request when the credential carries at least one
// of roles.
func (m *BearerAuth) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
			if !claims.HasAnyRole(roles...) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
			}
			return nil
		})
	}
}

func (m *BearerAuth) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		raw := BearerToken(c.Request())
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Validator.Validate(raw)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, jwt.ErrTokenExpired) {
				reason = "expired"
			}
			l.Warn("access_token_rejected", "status", 401, "reason", reason, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				l.Warn("access_denied", "status", 403, "user_id", claims.Subject, "roles", []string(claims.Roles))
				return validationErr
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxClaims, claims)
	c.Set(CtxUserID, claims.Subject)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ClaimsFrom returns the claims stored by RequireAuth.
func ClaimsFrom(c echo.Context) (*tokens.AccessClaims, bool) {
	claims, ok := c.Get(CtxClaims).(*tokens.AccessClaims)
	return claims, ok && claims != nil
}

// AccountID parses the authenticated subject.
func AccountID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(CtxUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("unauthorized")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New("unauthorized")
	}
	return id, nil
}
