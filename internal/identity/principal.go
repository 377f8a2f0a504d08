// AngelaMos | 2026
// principal.go

package identity

import "strings"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleWorker Role = "worker"
	RoleClient Role = "client"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleOwner, RoleWorker, RoleClient:
		return r, true
	default:
		return "", false
	}
}

type AccessLevel string

const (
	AccessOwner  AccessLevel = "owner"
	AccessAdmin  AccessLevel = "admin"
	AccessMember AccessLevel = "member"
)

func ParseAccessLevel(s string) (AccessLevel, bool) {
	switch l := AccessLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case AccessOwner, AccessAdmin, AccessMember:
		return l, true
	default:
		return "", false
	}
}

// NormalizeAccessLevel maps a (role, level) pair onto a legal combination:
// owners always carry owner access, workers are admin or member, clients
// are always member.
func NormalizeAccessLevel(role Role, level AccessLevel) AccessLevel {
	switch role {
	case RoleOwner:
		return AccessOwner
	case RoleWorker:
		if level == AccessAdmin {
			return AccessAdmin
		}
		return AccessMember
	default:
		return AccessMember
	}
}

// Principal is the authenticated identity snapshot carried by a session.
type Principal struct {
	UserID      string
	Role        Role
	CompanyID   string
	Name        string
	AccessLevel AccessLevel
}

func NewPrincipal(
	userID string,
	role Role,
	companyID, name string,
	level AccessLevel,
) Principal {
	return Principal{
		UserID:      userID,
		Role:        role,
		CompanyID:   companyID,
		Name:        name,
		AccessLevel: NormalizeAccessLevel(role, level),
	}
}

func (p Principal) HasCompany() bool {
	return p.CompanyID != ""
}

func (p Principal) CanManageCompany() bool {
	if p.Role == RoleOwner {
		return true
	}
	return p.AccessLevel == AccessOwner || p.AccessLevel == AccessAdmin
}

func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
