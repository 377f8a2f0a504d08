// AngelaMos | 2026
// dto.go

package auth

import (
	"strings"

	"github.com/carterperez-dev/visitpro/internal/user"
)

type SignupCompanyRequest struct {
	CompanyName string `json:"companyName" validate:"required,max=200"`
	Email       string `json:"email"       validate:"required,max=255"`
	Password    string `json:"password"    validate:"required,max=128"`
}

func (r *SignupCompanyRequest) Normalize() {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)
}

// UpdateProfileRequest uses pointers so absent fields are left untouched.
type UpdateProfileRequest struct {
	Username  *string `json:"username"  validate:"omitempty,max=64"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,max=2048"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"max=128"`
	NewPassword string `json:"newPassword" validate:"max=128"`
}

type AuthResponse struct {
	Token string        `json:"token"`
	User  user.Response `json:"user"`
}

type UserEnvelope struct {
	User user.Response `json:"user"`
}
