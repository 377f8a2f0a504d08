// AngelaMos | 2026
// dto.go

package company

import (
	"strings"

	"github.com/carterperez-dev/visitpro/internal/user"
)

// UpdateRequest only touches the fields present in the body.
type UpdateRequest struct {
	Name            *string   `json:"name"            validate:"omitempty,max=200"`
	Address         *string   `json:"address"         validate:"omitempty,max=500"`
	OrgNumber       *string   `json:"orgNumber"       validate:"omitempty,max=64"`
	TaxID           *string   `json:"taxId"           validate:"omitempty,max=64"`
	LogoURL         *string   `json:"logoUrl"         validate:"omitempty,max=2048"`
	ServicesOffered *[]string `json:"servicesOffered" validate:"omitempty,max=20,dive,max=64"`
}

type AccessLevelRequest struct {
	AccessLevel string `json:"accessLevel"`
}

type InviteWorkerRequest struct {
	Email    string `json:"email"    validate:"omitempty,email,max=255"`
	Name     string `json:"name"     validate:"max=200"`
	Password string `json:"password" validate:"max=128"`
}

func (r *InviteWorkerRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

type ProfileResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	OrgNumber       string   `json:"orgNumber"`
	TaxID           string   `json:"taxId"`
	LogoURL         string   `json:"logoUrl"`
	ServicesOffered []string `json:"servicesOffered"`
}

type OverviewResponse struct {
	ProfileResponse
	BillingPlan         string `json:"billingPlan"`
	BillingCycle        string `json:"billingCycle"`
	SubscriptionStatus  string `json:"subscriptionStatus"`
	PropertiesLimit     *int   `json:"propertiesLimit"`
	PropertiesUsed      int    `json:"propertiesUsed"`
	PropertiesRemaining *int   `json:"propertiesRemaining"`
	CanCreateProperty   bool   `json:"canCreateProperty"`
}

type MeResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	CompanyAccessLevel string `json:"companyAccessLevel"`
}

type CompanyMeResponse struct {
	Company OverviewResponse `json:"company"`
	Me      MeResponse       `json:"me"`
}

type UpdateResponse struct {
	Company ProfileResponse `json:"company"`
}

type TeamResponse struct {
	Members []user.MemberResponse `json:"members"`
}

type MemberUpdateResponse struct {
	Member user.MemberResponse `json:"member"`
}

type InviteWorkerResponse struct {
	OK        bool   `json:"ok"`
	UserID    string `json:"userId"`
	EmailSent bool   `json:"emailSent"`
}

func ToProfileResponse(c *Company) ProfileResponse {
	services := []string(c.ServicesOffered)
	if services == nil {
		services = []string{}
	}
	return ProfileResponse{
		ID:              c.ID,
		Name:            c.Name,
		Address:         c.Address,
		OrgNumber:       c.OrgNumber,
		TaxID:           c.TaxID,
		LogoURL:         c.LogoURL,
		ServicesOffered: services,
	}
}

func ToMeResponse(u *user.User) MeResponse {
	return MeResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role,
		CompanyAccessLevel: string(u.AccessLevel()),
	}
}

func normalizedBillingPlan(c *Company) string {
	return strings.ToLower(strings.TrimSpace(c.BillingPlan))
}

func normalizedOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
