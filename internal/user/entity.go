// AngelaMos | 2026
// entity.go

package user

import (
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/carterperez-dev/visitpro/internal/identity"
)

type User struct {
	ID                 string         `db:"id"`
	CompanyID          *string        `db:"company_id"`
	Role               string         `db:"role"`
	CompanyAccessLevel string         `db:"company_access_level"`
	Name               string         `db:"name"`
	Email              string         `db:"email"`
	Username           *string        `db:"username"`
	AvatarURL          string         `db:"avatar_url"`
	PushTokens         pq.StringArray `db:"push_tokens"`
	PasswordHash       string         `db:"password_hash"`
	IsActive           bool           `db:"is_active"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (u *User) CompanyIDValue() string {
	if u.CompanyID == nil {
		return ""
	}
	return *u.CompanyID
}

func (u *User) BelongsTo(companyID string) bool {
	return companyID != "" && u.CompanyIDValue() == companyID
}

func (u *User) UsernameValue() string {
	if u.Username == nil {
		return ""
	}
	return strings.TrimSpace(*u.Username)
}

func (u *User) RoleValue() identity.Role {
	role, _ := identity.ParseRole(u.Role)
	return role
}

// AccessLevel returns the stored level normalized against the role.
func (u *User) AccessLevel() identity.AccessLevel {
	level, _ := identity.ParseAccessLevel(u.CompanyAccessLevel)
	return identity.NormalizeAccessLevel(u.RoleValue(), level)
}

func (u *User) Principal() identity.Principal {
	return identity.NewPrincipal(
		u.ID,
		u.RoleValue(),
		u.CompanyIDValue(),
		u.Name,
		u.AccessLevel(),
	)
}

// DisplayName is how the user appears next to a reaction.
func (u *User) DisplayName() string {
	if username := u.UsernameValue(); username != "" {
		return username
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return "Client"
}

func (u *User) ActivePushTokens() []string {
	tokens := make([]string, 0, len(u.PushTokens))
	for _, token := range u.PushTokens {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
