// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/carterperez-dev/visitpro/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByIDs(ctx context.Context, ids []string) ([]User, error)
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAccessLevel(ctx context.Context, id, level string) error
	AttachCompany(ctx context.Context, user *User) error
	ListTeam(ctx context.Context, companyID string) ([]User, error)
	Delete(ctx context.Context, id string) error
	AddPushToken(ctx context.Context, id, token string) error
	RemovePushToken(ctx context.Context, id, token string) error
	PrunePushTokens(ctx context.Context, ids, tokens []string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, company_id, role, company_access_level, name, email,
	username, avatar_url, push_tokens, password_hash, is_active,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, company_id, role, company_access_level, name,
		                   email, username, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	err := core.Conn(ctx, r.db).GetContext(ctx, user, query,
		user.ID,
		user.CompanyID,
		user.Role,
		user.CompanyAccessLevel,
		user.Name,
		user.Email,
		user.Username,
		user.PasswordHash,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return r.getOne(ctx, "get user",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return r.getOne(ctx, "get user by email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	return r.getOne(ctx, "get user by username",
		`SELECT `+userColumns+` FROM users
		WHERE username IS NOT NULL AND LOWER(username) = LOWER($1)`,
		strings.TrimSpace(username))
}

func (r *repository) GetByIDs(ctx context.Context, ids []string) ([]User, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if uuid.Validate(id) == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []User{}, nil
	}

	var users []User
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`,
		pq.StringArray(valid),
	); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	return users, nil
}

func (r *repository) UsernameTaken(
	ctx context.Context,
	username, excludeID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE username IS NOT NULL
			  AND LOWER(username) = LOWER($1)
			  AND id::text <> $2
		)`

	var taken bool
	if err := core.Conn(ctx, r.db).GetContext(ctx, &taken, query,
		strings.TrimSpace(username), excludeID,
	); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}

	return taken, nil
}

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET username = $2, avatar_url = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &user.UpdatedAt, query,
		user.ID, user.Username, user.AvatarURL,
	)
	if core.IsNoRows(err) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update profile: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return r.execOne(ctx, "update password", `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`, id, passwordHash)
}

func (r *repository) UpdateAccessLevel(ctx context.Context, id, level string) error {
	return r.execOne(ctx, "update access level", `
		UPDATE users
		SET company_access_level = $2, updated_at = NOW()
		WHERE id = $1`, id, level)
}

// AttachCompany persists the tenant, access level and username of a user
// that is joining a tenant for the first time.
func (r *repository) AttachCompany(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET company_id = $2, company_access_level = $3, username = $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &user.UpdatedAt, query,
		user.ID, user.CompanyID, user.CompanyAccessLevel, user.Username,
	)
	if core.IsNoRows(err) {
		return fmt.Errorf("attach company: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("attach company: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("attach company: %w", err)
	}

	return nil
}

func (r *repository) ListTeam(ctx context.Context, companyID string) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE company_id = $1 AND role IN ('owner', 'worker')
		ORDER BY role, name`

	users := []User{}
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &users, query, companyID); err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}

	return users, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

func (r *repository) AddPushToken(ctx context.Context, id, token string) error {
	return r.execOne(ctx, "add push token", `
		UPDATE users
		SET push_tokens = CASE
		        WHEN $2 = ANY(push_tokens) THEN push_tokens
		        ELSE array_append(push_tokens, $2)
		    END,
		    updated_at = NOW()
		WHERE id = $1`, id, token)
}

func (r *repository) RemovePushToken(ctx context.Context, id, token string) error {
	return r.execOne(ctx, "remove push token", `
		UPDATE users
		SET push_tokens = array_remove(push_tokens, $2), updated_at = NOW()
		WHERE id = $1`, id, token)
}

// PrunePushTokens drops tokens the push provider reported as dead from every
// listed user.
func (r *repository) PrunePushTokens(ctx context.Context, ids, tokens []string) error {
	if len(ids) == 0 || len(tokens) == 0 {
		return nil
	}

	query := `
		UPDATE users
		SET push_tokens = ARRAY(
		        SELECT t FROM unnest(push_tokens) AS t
		        WHERE NOT (t = ANY($2::text[]))
		    ),
		    updated_at = NOW()
		WHERE id = ANY($1::uuid[])`

	if _, err := core.Conn(ctx, r.db).ExecContext(ctx, query,
		pq.StringArray(ids), pq.StringArray(tokens),
	); err != nil {
		return fmt.Errorf("prune push tokens: %w", err)
	}

	return nil
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*User, error) {
	var user User
	err := core.Conn(ctx, r.db).GetContext(ctx, &user, query, args...)
	if core.IsNoRows(err) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := core.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
