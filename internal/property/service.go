// AngelaMos | 2026
// service.go

package property

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/visitpro/internal/company"
	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/invite"
	"github.com/carterperez-dev/visitpro/internal/plan"
)

const shareTokenBytes = 16

type Inviter interface {
	Invite(ctx context.Context, req invite.Request) (*invite.Result, error)
}

type CompanyLookup interface {
	GetByID(ctx context.Context, id string) (*company.Company, error)
}

type Service struct {
	repo      Repository
	limits    invite.LimitGuard
	invites   Inviter
	companies CompanyLookup
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	limits invite.LimitGuard,
	invites Inviter,
	companies CompanyLookup,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		limits:    limits,
		invites:   invites,
		companies: companies,
		logger:    logger,
	}
}

// Access loads a property the principal may act on. Owners reach every
// property of their tenant; workers and clients only those they are
// assigned to.
func (s *Service) Access(ctx context.Context, p identity.Principal, id string) (*Property, error) {
	prop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("Property not found")
		}
		return nil, err
	}

	if p.Role == identity.RoleOwner {
		if prop.CompanyID != p.CompanyID {
			return nil, core.ForbiddenError("Forbidden")
		}
		return prop, nil
	}

	member, err := s.repo.IsMember(ctx, prop.ID, p.UserID, p.Role)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, core.ForbiddenError("Forbidden")
	}

	return prop, nil
}

func (s *Service) List(ctx context.Context, p identity.Principal) ([]Response, error) {
	var (
		properties []Property
		err        error
	)
	if p.Role == identity.RoleOwner {
		properties, err = s.repo.ListByCompany(ctx, p.CompanyID)
	} else {
		properties, err = s.repo.ListByMember(ctx, p.UserID, p.Role)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(properties))
	for i := range properties {
		ids[i] = properties[i].ID
	}

	accounts, err := s.repo.ClientAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	byProperty := make(map[string][]ClientAccount, len(properties))
	for _, a := range accounts {
		byProperty[a.PropertyID] = append(byProperty[a.PropertyID], a)
	}

	out := make([]Response, 0, len(properties))
	for i := range properties {
		out = append(out, ToResponse(&properties[i], byProperty[properties[i].ID]))
	}
	return out, nil
}

// Create adds a property under the tenant's plan limit and optionally
// invites a client to it. A failed client invite is reported alongside the
// created property instead of failing the request.
func (s *Service) Create(
	ctx context.Context,
	p identity.Principal,
	req CreateRequest,
) (*CreateResponse, error) {
	req.Normalize()
	if req.Name == "" || req.Address == "" {
		return nil, core.BadRequestError("name and address are required")
	}

	token, err := core.GenerateHexToken(shareTokenBytes)
	if err != nil {
		return nil, err
	}

	prop := &Property{
		ID:               uuid.New().String(),
		CompanyID:        p.CompanyID,
		Name:             req.Name,
		Address:          req.Address,
		ClientShareToken: token,
	}

	if err := s.limits.Guard(ctx, p.CompanyID, plan.Properties, func(ctx context.Context) error {
		return s.repo.Create(ctx, prop)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("property created",
		"property_id", prop.ID,
		"company_id", prop.CompanyID,
	)

	resp := &CreateResponse{}
	if req.ClientEmail != "" {
		result, err := s.invites.Invite(ctx, invite.Request{
			Role:          identity.RoleClient,
			CompanyID:     prop.CompanyID,
			Email:         req.ClientEmail,
			InvitedByName: orDefault(p.Name, "Your company"),
			PropertyID:    prop.ID,
			PropertyName:  prop.Name,
		})
		if appErr, ok := core.AsAppError(err); ok {
			msg := appErr.Message
			resp.InvitedClientError = &msg
		} else if err != nil {
			return nil, err
		} else {
			resp.InvitedClient = &InvitedClient{
				UserID:    result.User.ID,
				Email:     req.ClientEmail,
				EmailSent: result.EmailSent,
			}
		}
	}

	stored, err := s.repo.GetByID(ctx, prop.ID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.repo.ClientAccounts(ctx, []string{prop.ID})
	if err != nil {
		return nil, err
	}
	resp.Response = ToResponse(stored, accounts)

	return resp, nil
}

func (s *Service) InviteWorker(
	ctx context.Context,
	p identity.Principal,
	propertyID string,
	req InviteRequest,
) (*InviteResponse, error) {
	prop, err := s.Access(ctx, p, propertyID)
	if err != nil {
		return nil, err
	}

	c, err := s.companies.GetByID(ctx, prop.CompanyID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("Company not found")
		}
		return nil, err
	}

	result, err := s.invites.Invite(ctx, invite.Request{
		Role:          identity.RoleWorker,
		CompanyID:     prop.CompanyID,
		CompanyName:   c.Name,
		Email:         req.Email,
		Name:          req.Name,
		Password:      req.Password,
		InvitedByName: orDefault(p.Name, c.Name),
		PropertyID:    prop.ID,
		PropertyName:  prop.Name,
	})
	if err != nil {
		return nil, err
	}

	return &InviteResponse{
		OK:        true,
		UserID:    result.User.ID,
		Role:      string(identity.RoleWorker),
		EmailSent: result.EmailSent,
	}, nil
}

func (s *Service) InviteClient(
	ctx context.Context,
	p identity.Principal,
	propertyID string,
	req InviteRequest,
) (*InviteResponse, error) {
	prop, err := s.Access(ctx, p, propertyID)
	if err != nil {
		return nil, err
	}

	result, err := s.invites.Invite(ctx, invite.Request{
		Role:          identity.RoleClient,
		CompanyID:     prop.CompanyID,
		Email:         req.Email,
		Name:          req.Name,
		Password:      req.Password,
		InvitedByName: orDefault(p.Name, "Your company"),
		PropertyID:    prop.ID,
		PropertyName:  prop.Name,
	})
	if err != nil {
		return nil, err
	}

	return &InviteResponse{
		OK:        true,
		UserID:    result.User.ID,
		Role:      string(identity.RoleClient),
		EmailSent: result.EmailSent,
	}, nil
}

func (s *Service) RemoveClient(
	ctx context.Context,
	p identity.Principal,
	propertyID, clientUserID string,
) error {
	prop, err := s.Access(ctx, p, propertyID)
	if err != nil {
		return err
	}

	clientUserID = strings.TrimSpace(clientUserID)
	if clientUserID == "" {
		return core.BadRequestError("clientUserId is required")
	}
	if clientUserID == p.UserID {
		return core.BadRequestError("You cannot remove your own access")
	}

	if err := s.repo.RemoveMember(ctx, prop.ID, clientUserID, identity.RoleClient); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("Client is not assigned to this property")
		}
		return fmt.Errorf("remove client: %w", err)
	}

	return nil
}

// ClientIDs lists the clients assigned to a property.
func (s *Service) ClientIDs(ctx context.Context, propertyID string) ([]string, error) {
	return s.repo.MemberIDs(ctx, propertyID, identity.RoleClient)
}

func (s *Service) ByShareToken(ctx context.Context, token string) (*Property, error) {
	prop, err := s.repo.GetByShareToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("Share token not found")
		}
		return nil, err
	}
	return prop, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
