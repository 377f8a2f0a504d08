// AngelaMos | 2026
// repository.go

package property

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
)

type Repository interface {
	Create(ctx context.Context, p *Property) error
	GetByID(ctx context.Context, id string) (*Property, error)
	GetByShareToken(ctx context.Context, token string) (*Property, error)
	ListByCompany(ctx context.Context, companyID string) ([]Property, error)
	ListByMember(ctx context.Context, userID string, kind identity.Role) ([]Property, error)
	IsMember(ctx context.Context, propertyID, userID string, kind identity.Role) (bool, error)
	AddMember(ctx context.Context, propertyID, userID string, kind identity.Role) error
	RemoveMember(ctx context.Context, propertyID, userID string, kind identity.Role) error
	MemberIDs(ctx context.Context, propertyID string, kind identity.Role) ([]string, error)
	ClientAccounts(ctx context.Context, propertyIDs []string) ([]ClientAccount, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const propertySelect = `
	SELECT p.id, p.company_id, p.name, p.address, p.client_share_token,
	       COALESCE(c.logo_url, '') AS company_logo_url,
	       p.created_at, p.updated_at
	FROM properties p
	LEFT JOIN companies c ON c.id = p.company_id`

func (r *repository) Create(ctx context.Context, p *Property) error {
	query := `
		INSERT INTO properties (id, company_id, name, address, client_share_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		p.ID, p.CompanyID, p.Name, p.Address, p.ClientShareToken,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create property: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create property: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Property, error) {
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("get property: %w", core.ErrNotFound)
	}
	return r.getOne(ctx, "get property", propertySelect+` WHERE p.id = $1`, id)
}

func (r *repository) GetByShareToken(ctx context.Context, token string) (*Property, error) {
	if token == "" {
		return nil, fmt.Errorf("get property by share token: %w", core.ErrNotFound)
	}
	return r.getOne(ctx, "get property by share token",
		propertySelect+` WHERE p.client_share_token = $1`, token)
}

func (r *repository) ListByCompany(ctx context.Context, companyID string) ([]Property, error) {
	properties := []Property{}
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &properties,
		propertySelect+` WHERE p.company_id = $1 ORDER BY p.created_at DESC`,
		companyID,
	); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return properties, nil
}

func (r *repository) ListByMember(
	ctx context.Context,
	userID string,
	kind identity.Role,
) ([]Property, error) {
	query := propertySelect + `
		JOIN property_members m ON m.property_id = p.id
		WHERE m.user_id = $1 AND m.kind = $2
		ORDER BY p.created_at DESC`

	properties := []Property{}
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &properties, query,
		userID, string(kind),
	); err != nil {
		return nil, fmt.Errorf("list member properties: %w", err)
	}
	return properties, nil
}

func (r *repository) IsMember(
	ctx context.Context,
	propertyID, userID string,
	kind identity.Role,
) (bool, error) {
	var member bool
	if err := core.Conn(ctx, r.db).GetContext(ctx, &member, `
		SELECT EXISTS(
			SELECT 1 FROM property_members
			WHERE property_id = $1 AND user_id = $2 AND kind = $3
		)`, propertyID, userID, string(kind),
	); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}

// AddMember is idempotent.
func (r *repository) AddMember(
	ctx context.Context,
	propertyID, userID string,
	kind identity.Role,
) error {
	if _, err := core.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO property_members (property_id, user_id, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, propertyID, userID, string(kind),
	); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (r *repository) RemoveMember(
	ctx context.Context,
	propertyID, userID string,
	kind identity.Role,
) error {
	if uuid.Validate(userID) != nil {
		return fmt.Errorf("remove member: %w", core.ErrNotFound)
	}

	result, err := core.Conn(ctx, r.db).ExecContext(ctx, `
		DELETE FROM property_members
		WHERE property_id = $1 AND user_id = $2 AND kind = $3`,
		propertyID, userID, string(kind))
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("remove member: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) MemberIDs(
	ctx context.Context,
	propertyID string,
	kind identity.Role,
) ([]string, error) {
	ids := []string{}
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &ids, `
		SELECT user_id::text FROM property_members
		WHERE property_id = $1 AND kind = $2
		ORDER BY created_at`, propertyID, string(kind),
	); err != nil {
		return nil, fmt.Errorf("list member ids: %w", err)
	}
	return ids, nil
}

func (r *repository) ClientAccounts(
	ctx context.Context,
	propertyIDs []string,
) ([]ClientAccount, error) {
	if len(propertyIDs) == 0 {
		return []ClientAccount{}, nil
	}

	query := `
		SELECT m.property_id, u.id, u.name, u.email, u.username, u.avatar_url
		FROM property_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.property_id = ANY($1::uuid[]) AND m.kind = 'client'
		ORDER BY m.created_at`

	accounts := []ClientAccount{}
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &accounts, query,
		pq.StringArray(propertyIDs),
	); err != nil {
		return nil, fmt.Errorf("list client accounts: %w", err)
	}
	return accounts, nil
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Property, error) {
	var p Property
	err := core.Conn(ctx, r.db).GetContext(ctx, &p, query, args...)
	if core.IsNoRows(err) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}
