// AngelaMos | 2026
// service.go

package company

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/visitpro/internal/catalog"
	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/invite"
	"github.com/carterperez-dev/visitpro/internal/plan"
	"github.com/carterperez-dev/visitpro/internal/user"
)

// BillingSyncer refreshes a company's stored billing state in place.
type BillingSyncer interface {
	Sync(ctx context.Context, c *Company)
}

type UsageReader interface {
	Usage(
		ctx context.Context,
		companyID, billingPlan string,
		res plan.Resource,
	) (plan.Usage, error)
}

type WorkerInviter interface {
	Invite(ctx context.Context, req invite.Request) (*invite.Result, error)
}

type Service struct {
	repo    Repository
	users   user.Repository
	usage   UsageReader
	invites WorkerInviter
	billing BillingSyncer
	logger  *slog.Logger
}

// NewService accepts a nil billing syncer when Stripe is not configured.
func NewService(
	repo Repository,
	users user.Repository,
	usage UsageReader,
	invites WorkerInviter,
	billing BillingSyncer,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		usage:   usage,
		invites: invites,
		billing: billing,
		logger:  logger,
	}
}

func (s *Service) Me(ctx context.Context, p identity.Principal) (*CompanyMeResponse, error) {
	c, err := s.company(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	if s.billing != nil {
		s.billing.Sync(ctx, c)
	}

	me, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("User not found")
		}
		return nil, err
	}

	billingPlan := normalizedBillingPlan(c)
	usage, err := s.usage.Usage(ctx, c.ID, billingPlan, plan.Properties)
	if err != nil {
		return nil, err
	}

	return &CompanyMeResponse{
		Company: OverviewResponse{
			ProfileResponse:     ToProfileResponse(c),
			BillingPlan:         billingPlan,
			BillingCycle:        normalizedOr(c.BillingCycle, "yearly"),
			SubscriptionStatus:  normalizedOr(c.SubscriptionStatus, "inactive"),
			PropertiesLimit:     usage.Limit,
			PropertiesUsed:      usage.Used,
			PropertiesRemaining: usage.Remaining,
			CanCreateProperty:   usage.CanCreate(),
		},
		Me: ToMeResponse(me),
	}, nil
}

func (s *Service) Update(
	ctx context.Context,
	p identity.Principal,
	req UpdateRequest,
) (*UpdateResponse, error) {
	c, err := s.company(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, core.BadRequestError("Company name is required")
		}
		c.Name = name
	}
	if req.Address != nil {
		c.Address = strings.TrimSpace(*req.Address)
	}
	if req.OrgNumber != nil {
		c.OrgNumber = strings.TrimSpace(*req.OrgNumber)
	}
	if req.TaxID != nil {
		c.TaxID = strings.TrimSpace(*req.TaxID)
	}
	if req.LogoURL != nil {
		c.LogoURL = strings.TrimSpace(*req.LogoURL)
	}
	if req.ServicesOffered != nil {
		c.ServicesOffered = catalog.FilterServiceTypes(*req.ServicesOffered)
	}

	if err := s.repo.UpdateProfile(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("company profile updated", "company_id", c.ID, "user_id", p.UserID)

	return &UpdateResponse{Company: ToProfileResponse(c)}, nil
}

func (s *Service) Team(ctx context.Context, p identity.Principal) (*TeamResponse, error) {
	members, err := s.users.ListTeam(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	return &TeamResponse{Members: user.ToMemberResponseList(members)}, nil
}

// SetAccessLevel promotes or demotes a worker. Only the company owner may
// change admin access.
func (s *Service) SetAccessLevel(
	ctx context.Context,
	p identity.Principal,
	userID, rawLevel string,
) (*MemberUpdateResponse, error) {
	if p.AccessLevel != identity.AccessOwner {
		return nil, core.ForbiddenError("Only company owner can change admin access")
	}

	userID = strings.TrimSpace(userID)
	level, ok := identity.ParseAccessLevel(strings.ToLower(strings.TrimSpace(rawLevel)))
	if userID == "" || !ok || level == identity.AccessOwner {
		return nil, core.BadRequestError("userId and valid accessLevel are required")
	}

	target, err := s.teamMember(ctx, p.CompanyID, userID)
	if err != nil {
		return nil, err
	}
	if target.RoleValue() != identity.RoleWorker {
		return nil, core.BadRequestError("Only workers can be promoted or demoted as admin")
	}

	if err := s.users.UpdateAccessLevel(ctx, target.ID, string(level)); err != nil {
		return nil, err
	}
	target.CompanyAccessLevel = string(level)

	s.logger.Info("team access level changed",
		"company_id", p.CompanyID,
		"user_id", target.ID,
		"access_level", level,
	)

	return &MemberUpdateResponse{Member: user.ToMemberResponse(target)}, nil
}

func (s *Service) InviteWorker(
	ctx context.Context,
	p identity.Principal,
	req InviteWorkerRequest,
) (*InviteWorkerResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, core.BadRequestError("email is required")
	}

	c, err := s.company(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	invitedBy := strings.TrimSpace(p.Name)
	if invitedBy == "" {
		invitedBy = c.Name
	}

	result, err := s.invites.Invite(ctx, invite.Request{
		Role:          identity.RoleWorker,
		CompanyID:     c.ID,
		CompanyName:   c.Name,
		Email:         email,
		Name:          strings.TrimSpace(req.Name),
		Password:      strings.TrimSpace(req.Password),
		InvitedByName: invitedBy,
	})
	if err != nil {
		return nil, err
	}

	return &InviteWorkerResponse{
		OK:        true,
		UserID:    result.User.ID,
		EmailSent: result.EmailSent,
	}, nil
}

func (s *Service) RemoveMember(ctx context.Context, p identity.Principal, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.BadRequestError("userId is required")
	}

	target, err := s.teamMember(ctx, p.CompanyID, userID)
	if err != nil {
		return err
	}
	if target.RoleValue() != identity.RoleWorker {
		return core.BadRequestError("Only workers can be removed from team")
	}
	if target.ID == p.UserID {
		return core.BadRequestError("You cannot remove your own account")
	}

	if err := s.users.Delete(ctx, target.ID); err != nil {
		return err
	}

	s.logger.Info("team member removed", "company_id", p.CompanyID, "user_id", target.ID)
	return nil
}

func (s *Service) company(ctx context.Context, id string) (*Company, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("Company not found")
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) teamMember(ctx context.Context, companyID, userID string) (*user.User, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("Team member not found")
		}
		return nil, err
	}
	if !target.BelongsTo(companyID) {
		return nil, core.NotFoundError("Team member not found")
	}
	return target, nil
}
