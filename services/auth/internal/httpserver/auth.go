package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/pkg/logging"
	mw "github.com/microshop/platform/pkg/middleware/auth"
	"github.com/microshop/platform/services/auth/internal/service"
	"github.com/microshop/platform/services/auth/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// httpError renders a service error. Validation errors carry their field
// messages; infrastructure errors never show their cause.
func httpError(err error) error {
	code := apperr.Status(err)
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(code, echo.Map{
			"message": ve.Message,
			"fields":  ve.Fields,
		})
	}
	return echo.NewHTTPError(code, apperr.Message(err))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if _, err := h.Svc.Register(ctx, req); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User registered successfully"})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, tokenResponse(res))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, tokenResponse(res))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var req transport.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("logout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.LogOut(ctx, req.RefreshToken); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logout successful."})
}

func (h *AuthHTTP) Authorized(c echo.Context) error {
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Authorized"})
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_profile")

	id, err := mw.AccountID(c)
	if err != nil {
		l.Warn("profile_error", "status", 401, "reason", "no subject in token", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	acc, err := h.Svc.Profile(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return httpError(err)
	}

	return c.JSON(http.StatusOK, transport.NewProfileResponse(acc))
}

func (h *AuthHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_update_profile")

	id, err := mw.AccountID(c)
	if err != nil {
		l.Warn("update_profile_error", "status", 401, "reason", "no subject in token", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		l.Warn("update_profile_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if _, err := h.Svc.UpdateProfile(ctx, id, req); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return httpError(err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Profile updated successfully"})
}

func (h *AuthHTTP) AssignRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_assign_role")

	var req transport.AssignRoleRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("assign_role_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	id, err := uuid.Parse(req.UserID)
	if err != nil {
		l.Warn("assign_role_error", "status", 400, "reason", "bad user id", "error", err)
		return httpError(apperr.NewValidationError("userId", "userId must be a uuid"))
	}

	if err := h.Svc.AssignRole(ctx, id, req.Role); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Role assigned"})
}

func tokenResponse(res *service.LoginResult) transport.TokenResponse {
	return transport.TokenResponse{
		JWTToken:         res.AccessToken,
		RefreshToken:     res.RefreshToken,
		AccessExpiresAt:  res.AccessExp,
		RefreshExpiresAt: res.RefreshExp,
	}
}
