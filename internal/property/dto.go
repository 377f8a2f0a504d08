// AngelaMos | 2026
// dto.go

package property

import (
	"strings"
)

type CreateRequest struct {
	Name        string `json:"name"        validate:"max=200"`
	Address     string `json:"address"     validate:"max=500"`
	ClientEmail string `json:"clientEmail" validate:"omitempty,email,max=255"`
}

func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.ClientEmail = strings.ToLower(strings.TrimSpace(r.ClientEmail))
}

type InviteRequest struct {
	Email    string `json:"email"    validate:"omitempty,email,max=255"`
	Name     string `json:"name"     validate:"max=200"`
	Password string `json:"password" validate:"max=128"`
}

func (r *InviteRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

type ClientAccountResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatarUrl"`
}

type Response struct {
	ID                     string                  `json:"id"`
	Name                   string                  `json:"name"`
	Address                string                  `json:"address"`
	ClientShareToken       string                  `json:"clientShareToken"`
	CompanyLogoURL         string                  `json:"companyLogoUrl"`
	AssignedClientAccounts []ClientAccountResponse `json:"assignedClientAccounts"`
}

type InvitedClient struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	EmailSent bool   `json:"emailSent"`
}

type CreateResponse struct {
	Response
	InvitedClient      *InvitedClient `json:"invitedClient"`
	InvitedClientError *string        `json:"invitedClientError"`
}

type InviteResponse struct {
	OK        bool   `json:"ok"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	EmailSent bool   `json:"emailSent"`
}

func ToResponse(p *Property, clients []ClientAccount) Response {
	accounts := make([]ClientAccountResponse, 0, len(clients))
	for _, c := range clients {
		account := ClientAccountResponse{
			ID:    c.ID,
			Name:  c.Name,
			Email: c.Email,
		}
		if c.Username != nil {
			account.Username = *c.Username
		}
		if c.AvatarURL != "" {
			avatar := c.AvatarURL
			account.AvatarURL = &avatar
		}
		accounts = append(accounts, account)
	}

	return Response{
		ID:                     p.ID,
		Name:                   p.Name,
		Address:                p.Address,
		ClientShareToken:       p.ClientShareToken,
		CompanyLogoURL:         p.CompanyLogoURL,
		AssignedClientAccounts: accounts,
	}
}
