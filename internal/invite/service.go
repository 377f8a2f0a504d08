// AngelaMos | 2026
// service.go

package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/mailer"
	"github.com/carterperez-dev/visitpro/internal/plan"
	"github.com/carterperez-dev/visitpro/internal/user"
)

type LimitGuard interface {
	Guard(
		ctx context.Context,
		companyID string,
		res plan.Resource,
		create func(ctx context.Context) error,
	) error
}

type MemberAttacher interface {
	AddMember(ctx context.Context, propertyID, userID string, kind identity.Role) error
}

type Mailer interface {
	SendClientInvite(ctx context.Context, in mailer.ClientInvite) error
	SendWorkerInvite(ctx context.Context, in mailer.WorkerInvite) error
}

// Request describes one invite. PropertyID is empty for company-level
// worker invites.
type Request struct {
	Role          identity.Role
	CompanyID     string
	CompanyName   string
	Email         string
	Name          string
	Password      string
	InvitedByName string
	PropertyID    string
	PropertyName  string
}

type Result struct {
	User              *user.User
	Created           bool
	TemporaryPassword string
	EmailSent         bool
}

type Service struct {
	users   user.Repository
	limits  LimitGuard
	members MemberAttacher
	mail    Mailer
	logger  *slog.Logger
}

// NewService accepts a nil mail when SMTP is not configured.
func NewService(
	users user.Repository,
	limits LimitGuard,
	members MemberAttacher,
	mail Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:   users,
		limits:  limits,
		members: members,
		mail:    mail,
		logger:  logger,
	}
}

func (s *Service) Invite(ctx context.Context, req Request) (*Result, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return nil, core.BadRequestError("email is required")
	}
	if req.Role != identity.RoleClient && req.Role != identity.RoleWorker {
		return nil, fmt.Errorf("invite role %q: %w", req.Role, core.ErrInvalidInput)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = user.DefaultName(req.Email, fallbackName(req.Role))
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	var result *Result
	if existing == nil {
		result, err = s.provision(ctx, req, name)
	} else {
		result, err = s.attachExisting(ctx, req, existing, name)
	}
	if err != nil {
		return nil, err
	}

	result.EmailSent = s.notify(ctx, req, result)
	return result, nil
}

func (s *Service) provision(ctx context.Context, req Request, name string) (*Result, error) {
	password := strings.TrimSpace(req.Password)
	if password == "" {
		generated, err := core.GenerateTemporaryPassword()
		if err != nil {
			return nil, err
		}
		password = generated
	}

	passwordHash, err := core.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	companyID := req.CompanyID
	u := &user.User{
		ID:                 uuid.New().String(),
		CompanyID:          &companyID,
		Role:               string(req.Role),
		CompanyAccessLevel: string(identity.AccessMember),
		Name:               name,
		Email:              req.Email,
		PasswordHash:       passwordHash,
	}

	err = s.limits.Guard(ctx, req.CompanyID, resourceFor(req.Role), func(ctx context.Context) error {
		if req.Role == identity.RoleClient {
			username, err := user.AvailableUsername(ctx, s.users, user.SuggestUsername(name, req.Email), u.ID)
			if err != nil {
				return err
			}
			u.Username = &username
		}

		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				return core.DuplicateError("Email already exists")
			}
			return err
		}
		return s.attach(ctx, req, u.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invited user provisioned",
		"user_id", u.ID,
		"company_id", req.CompanyID,
		"role", req.Role,
	)

	return &Result{User: u, Created: true, TemporaryPassword: password}, nil
}

func (s *Service) attachExisting(
	ctx context.Context,
	req Request,
	u *user.User,
	name string,
) (*Result, error) {
	switch req.Role {
	case identity.RoleClient:
		if u.Role != string(identity.RoleClient) {
			return nil, core.BadRequestError("User exists with a non-client role")
		}
	case identity.RoleWorker:
		if u.Role != string(identity.RoleWorker) && u.Role != string(identity.RoleOwner) {
			return nil, core.BadRequestError("User exists with a non-worker role")
		}
	}

	if u.CompanyIDValue() != "" && !u.BelongsTo(req.CompanyID) {
		if req.PropertyID != "" {
			return nil, core.ConflictError("User belongs to a different company")
		}
		return nil, core.ConflictError("This email is already used by an account in another company.")
	}

	needsUsername := u.Role == string(identity.RoleClient) && u.UsernameValue() == ""
	if needsUsername {
		username, err := user.AvailableUsername(ctx, s.users,
			user.SuggestUsername(orDefault(u.Name, name), req.Email), u.ID)
		if err != nil {
			return nil, err
		}
		u.Username = &username
	}

	if u.CompanyIDValue() == "" {
		companyID := req.CompanyID
		u.CompanyID = &companyID
		u.CompanyAccessLevel = string(u.AccessLevel())

		err := s.limits.Guard(ctx, req.CompanyID, resourceFor(req.Role), func(ctx context.Context) error {
			if err := s.users.AttachCompany(ctx, u); err != nil {
				return err
			}
			return s.attach(ctx, req, u.ID)
		})
		if err != nil {
			return nil, err
		}
		return &Result{User: u}, nil
	}

	if needsUsername {
		if err := s.users.AttachCompany(ctx, u); err != nil {
			return nil, err
		}
	}
	if err := s.attach(ctx, req, u.ID); err != nil {
		return nil, err
	}

	return &Result{User: u}, nil
}

func (s *Service) attach(ctx context.Context, req Request, userID string) error {
	if req.PropertyID == "" {
		return nil
	}
	if err := s.members.AddMember(ctx, req.PropertyID, userID, req.Role); err != nil {
		return fmt.Errorf("attach %s to property: %w", req.Role, err)
	}
	return nil
}

// notify sends the invitation email. Delivery failures are logged and
// reported as false.
func (s *Service) notify(ctx context.Context, req Request, result *Result) bool {
	if s.mail == nil {
		return false
	}

	displayName := orDefault(result.User.Name, user.DefaultName(req.Email, fallbackName(req.Role)))

	var err error
	switch req.Role {
	case identity.RoleClient:
		err = s.mail.SendClientInvite(ctx, mailer.ClientInvite{
			ToEmail:           req.Email,
			ClientName:        displayName,
			PropertyName:      req.PropertyName,
			InvitedByName:     req.InvitedByName,
			TemporaryPassword: result.TemporaryPassword,
		})
	default:
		err = s.mail.SendWorkerInvite(ctx, mailer.WorkerInvite{
			ToEmail:           req.Email,
			WorkerName:        displayName,
			CompanyName:       req.CompanyName,
			InvitedByName:     orDefault(req.InvitedByName, req.CompanyName),
			TemporaryPassword: result.TemporaryPassword,
		})
	}
	if err != nil {
		s.logger.Warn("invite email failed",
			"role", req.Role,
			"user_id", result.User.ID,
			"error", err,
		)
		return false
	}

	return true
}

func resourceFor(role identity.Role) plan.Resource {
	if role == identity.RoleClient {
		return plan.Clients
	}
	return plan.Employees
}

func fallbackName(role identity.Role) string {
	if role == identity.RoleClient {
		return "Client"
	}
	return "Worker"
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
