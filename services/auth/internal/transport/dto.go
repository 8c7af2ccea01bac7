package transport

import (
	"time"

	"github.com/microshop/platform/services/auth/internal/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AssignRoleRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type TokenResponse struct {
	JWTToken         string    `json:"jwtToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ProfileResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Address  *string  `json:"address"`
	Roles    []string `json:"roles"`
}

func NewProfileResponse(acc *models.Account) ProfileResponse {
	roles := make([]string, 0, len(acc.Roles))
	for _, r := range acc.Roles {
		roles = append(roles, r.Name)
	}
	return ProfileResponse{
		ID:       acc.ID.String(),
		Username: acc.Username,
		Email:    acc.Email,
		Address:  acc.Address,
		Roles:    roles,
	}
}
