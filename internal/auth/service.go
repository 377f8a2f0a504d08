// AngelaMos | 2026
// service.go

package auth

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
	"github.com/carterperez-dev/visitpro/internal/user"
)

const minPasswordLength = 8

var ErrInvalidCredentials = errors.New("invalid credentials")

type SessionStore interface {
	Create(ctx context.Context, p identity.Principal) (string, error)
	Delete(ctx context.Context, token string) error
}

type CompanyCreator interface {
	Create(ctx context.Context, c *company.Company) error
}

type Service struct {
	users     user.Repository
	companies CompanyCreator
	sessions  SessionStore
	tx        core.Transactor
	logger    *slog.Logger
}

func NewService(
	users user.Repository,
	companies CompanyCreator,
	sessions SessionStore,
	tx core.Transactor,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:     users,
		companies: companies,
		sessions:  sessions,
		tx:        tx,
		logger:    logger,
	}
}

// SignupCompany creates a tenant and its owner account in one transaction
// and opens a session for the owner.
func (s *Service) SignupCompany(
	ctx context.Context,
	req SignupCompanyRequest,
) (*AuthResponse, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, core.DuplicateError("Email already exists")
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var owner *user.User
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		c := &company.Company{
			ID:   uuid.New().String(),
			Name: req.CompanyName,
		}
		if err := s.companies.Create(ctx, c); err != nil {
			return err
		}

		companyID := c.ID
		owner = &user.User{
			ID:                 uuid.New().String(),
			CompanyID:          &companyID,
			Role:               string(identity.RoleOwner),
			CompanyAccessLevel: string(identity.AccessOwner),
			Name:               req.CompanyName,
			Email:              req.Email,
			PasswordHash:       passwordHash,
		}
		return s.users.Create(ctx, owner)
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, core.DuplicateError("Email already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("signup company: %w", err)
	}

	return s.issue(ctx, owner)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var (
		u   *user.User
		err error
	)
	if req.Email != "" {
		u, err = s.users.GetByEmail(ctx, req.Email)
	} else {
		u, err = s.users.GetByUsername(ctx, req.Username)
	}
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, &u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.users.UpdatePassword(ctx, u.ID, newHash)
	}

	return s.issue(ctx, u)
}

func (s *Service) Me(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("User not found")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*user.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, core.BadRequestError("username cannot be empty")
		}

		taken, err := s.users.UsernameTaken(ctx, username, u.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, core.DuplicateError("Username already exists")
		}
		u.Username = &username
	}

	if req.AvatarURL != nil {
		u.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}

	err = s.users.UpdateProfile(ctx, u)
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, core.DuplicateError("Username already exists")
	}
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID string,
	req ChangePasswordRequest,
) error {
	if req.OldPassword == "" || req.NewPassword == "" {
		return core.BadRequestError("oldPassword and newPassword are required")
	}
	if len(req.NewPassword) < minPasswordLength {
		return core.BadRequestError("New password must be at least 8 characters")
	}

	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := core.VerifyPassword(req.OldPassword, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return core.UnauthorizedError("Old password is incorrect")
	}

	passwordHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, u.ID, passwordHash)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *Service) issue(ctx context.Context, u *user.User) (*AuthResponse, error) {
	token, err := s.sessions.Create(ctx, u.Principal())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "session issued",
		"user_id", u.ID,
		"role", u.Role,
	)

	return &AuthResponse{Token: token, User: user.ToResponse(u)}, nil
}
