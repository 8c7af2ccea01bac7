package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/pkg/events"
	pkg_hash "github.com/microshop/platform/pkg/hash"
	"github.com/microshop/platform/pkg/logging"
	"github.com/microshop/platform/pkg/tokens"
	"github.com/microshop/platform/pkg/validation"
	"github.com/microshop/platform/services/auth/internal/domain"
	"github.com/microshop/platform/services/auth/internal/models"
)

type AccountStore interface {
	CreateWithRole(ctx context.Context, acc *models.Account, role string) error
	ByUsername(ctx context.Context, username string) (*models.Account, error)
	ByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, username, email string, address *string) (*models.Account, error)
}

type RoleDirectory interface {
	Exists(ctx context.Context, name string) (bool, error)
	Assign(ctx context.Context, accountID uuid.UUID, name string) error
	RolesOf(ctx context.Context, accountID uuid.UUID) ([]string, error)
}

type RefreshStore interface {
	Create(ctx context.Context, accountID uuid.UUID) (models.IssuedRefresh, error)
	FindValid(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	Rotate(ctx context.Context, token string) (models.IssuedRefresh, error)
}

// AuthService is the credential issuer: it registers accounts, logs them in
// and manages the refresh credential lifecycle.
type AuthService struct {
	Accounts AccountStore
	Roles    RoleDirectory
	Refresh  RefreshStore
	Signer   tokens.Signer
	Events   events.Publisher
}

type RegisterInput struct {
	Username string  `json:"username" validate:"required,max=64"`
	Email    string  `json:"email"    validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role"`
	Address  *string `json:"address"`
}

type ProfileInput struct {
	Username string  `json:"username" validate:"required,max=64"`
	Email    string  `json:"email"    validate:"required,email"`
	Address  *string `json:"address"`
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Roles        []string
}

func (h *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", in.Username)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
		return nil, err
	}

	ok, err := h.Roles.Exists(ctx, in.Role)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "role lookup failed", "error", err)
		return nil, err
	}
	if !ok {
		l.Warn("register_error", "status", 400, "reason", "invalid role", "role", in.Role)
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidRole, in.Role)
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, apperr.Infra(err)
	}

	acc := &models.Account{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
		Address:      in.Address,
	}
	if err := h.Accounts.CreateWithRole(ctx, acc, in.Role); err != nil {
		if apperr.Status(err) >= 500 {
			l.Error("register_error", "status", 500, "error", err)
		} else {
			l.Warn("register_error", "status", apperr.Status(err), "error", err)
		}
		return nil, err
	}

	h.publish(ctx, events.Event{
		Type: "user_registered",
		Key:  acc.ID.String(),
		Data: map[string]any{"username": acc.Username, "role": in.Role},
	})
	l.Info("register_success", "user_id", acc.ID)
	return acc, nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// spendHashTime runs one bcrypt comparison so unknown usernames cost the
// same as wrong passwords.
func spendHashTime(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = pkg_hash.HashPassword("not-a-real-password")
	})
	pkg_hash.CheckPassword(dummyHash, password)
}

func (h *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		l.Warn("login_failed", "status", 400, "reason", "empty credentials")
		return nil, apperr.NewValidationError("username", "username and password are required")
	}

	acc, err := h.Accounts.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			spendHashTime(password)
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, apperr.ErrAuthentication
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !pkg_hash.CheckPassword(acc.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, apperr.ErrAuthentication
	}

	refresh, err := h.Refresh.Create(ctx, acc.ID)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}

	res, err := h.issue(ctx, acc, refresh)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	h.publish(ctx, events.Event{Type: "user_logged_in", Key: acc.ID.String()})
	l.Info("login_success", "user_id", acc.ID)
	return res, nil
}

// RefreshTokens rotates the refresh credential and mints an access credential
// from the account's current roles.
func (h *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "empty token")
		return nil, domain.ErrRefreshNotFound
	}

	rotated, err := h.Refresh.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperr.ErrExpiredOrRevoked) {
			l.Warn("refresh_failed", "status", 401, "reason", domain.Reason(err))
			return nil, err
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	// The presented token is spent from here on. A failure below never
	// delivers the successor, so it is revoked as well and the client has
	// to log in again.
	acc, err := h.Accounts.ByID(ctx, rotated.AccountID)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "account of refresh token is gone",
			"user_id", rotated.AccountID, "error", err)
		h.discard(ctx, rotated)
		return nil, apperr.Infra(err)
	}

	res, err := h.issue(ctx, acc, rotated)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "user_id", rotated.AccountID, "error", err)
		h.discard(ctx, rotated)
		return nil, err
	}

	h.publish(ctx, events.Event{Type: "refresh_rotated", Key: acc.ID.String()})
	l.Info("refresh_success", "user_id", acc.ID)
	return res, nil
}

// discard revokes a rotated refresh credential that was never handed out.
func (h *AuthService) discard(ctx context.Context, rotated models.IssuedRefresh) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh",
		"user_id", rotated.AccountID, "refresh_hash", domain.HashToken(rotated.Token))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Refresh.Revoke(ctx, rotated.Token); err != nil {
		l.Error("refresh_discard_failed", "error", err)
		return
	}
	l.Warn("refresh_discarded", "reason", "rotated token was not delivered")
}

func (h *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if refreshToken == "" {
		l.Warn("logout_failed", "status", 401, "reason", "empty token")
		return domain.ErrRefreshNotFound
	}

	if err := h.Refresh.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, apperr.ErrExpiredOrRevoked) {
			l.Warn("logout_failed", "status", 401, "reason", domain.Reason(err))
			return err
		}
		l.Error("logout_failed", "status", 500, "error", err)
		return err
	}

	h.publish(ctx, events.Event{Type: "refresh_revoked", Key: domain.HashToken(refreshToken)})
	l.Info("logout_success")
	return nil
}

func (h *AuthService) Profile(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	acc, err := h.Accounts.ByID(ctx, accountID)
	if err != nil {
		logging.FromContext(ctx).Warn("profile_error", "status", apperr.Status(err), "user_id", accountID, "error", err)
		return nil, err
	}
	return acc, nil
}

func (h *AuthService) UpdateProfile(ctx context.Context, accountID uuid.UUID, in ProfileInput) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.update_profile", "user_id", accountID)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		l.Warn("update_profile_error", "status", 400, "error", err)
		return nil, err
	}

	acc, err := h.Accounts.UpdateProfile(ctx, accountID, in.Username, in.Email, in.Address)
	if err != nil {
		l.Warn("update_profile_error", "status", apperr.Status(err), "error", err)
		return nil, err
	}

	l.Info("update_profile_success")
	return acc, nil
}

// AssignRole grants an additional role. Access credentials already issued
// keep their old role snapshot until the next login or refresh.
func (h *AuthService) AssignRole(ctx context.Context, accountID uuid.UUID, role string) error {
	l := logging.FromContext(ctx).With("svc", "auth.assign_role", "user_id", accountID, "role", role)

	ok, err := h.Roles.Exists(ctx, role)
	if err != nil {
		l.Error("assign_role_error", "status", 500, "error", err)
		return err
	}
	if !ok {
		l.Warn("assign_role_error", "status", 400, "reason", "invalid role")
		return fmt.Errorf("%w: %q", apperr.ErrInvalidRole, role)
	}

	if err := h.Roles.Assign(ctx, accountID, role); err != nil {
		l.Warn("assign_role_error", "status", apperr.Status(err), "error", err)
		return err
	}

	h.publish(ctx, events.Event{Type: "role_assigned", Key: accountID.String(), Data: map[string]any{"role": role}})
	l.Info("assign_role_success")
	return nil
}

func (h *AuthService) issue(ctx context.Context, acc *models.Account, refresh models.IssuedRefresh) (*LoginResult, error) {
	roles, err := h.Roles.RolesOf(ctx, acc.ID)
	if err != nil {
		return nil, err
	}

	access, accessExp, err := h.Signer.Sign(tokens.Identity{
		AccountID: acc.ID.String(),
		Username:  acc.Username,
		Email:     acc.Email,
		Roles:     roles,
	})
	if err != nil {
		return nil, apperr.Infra(err)
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		AccessExp:    accessExp,
		RefreshExp:   refresh.ExpiresAt,
		Roles:        roles,
	}, nil
}

func (h *AuthService) publish(ctx context.Context, ev events.Event) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Events.Publish(ctx, events.TopicUser, ev); err != nil {
		logging.FromContext(ctx).Warn("kafka_publish_error", "type", ev.Type, "error", err)
	}
}
