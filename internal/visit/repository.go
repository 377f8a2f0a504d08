// AngelaMos | 2026
// repository.go

package visit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/carterperez-dev/visitpro/internal/core"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, propertyID, visitID string) (*Visit, error)
	ListByProperty(ctx context.Context, propertyID string) ([]Visit, error)
	Reactions(ctx context.Context, visitIDs []string) ([]Reaction, error)
	ReactionOf(ctx context.Context, visitID, userID string) (string, error)
	SetReaction(ctx context.Context, visitID, userID, emoji string) error
	DeleteReaction(ctx context.Context, visitID, userID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const visitSelect = `
	SELECT v.id, v.company_id, v.property_id, v.created_by_user_id,
	       v.worker_name, COALESCE(u.avatar_url, '') AS worker_avatar_url,
	       v.note, v.service_type, v.service_checklist, v.photos, v.created_at
	FROM visits v
	LEFT JOIN users u ON u.id = v.created_by_user_id`

func (r *repository) Create(ctx context.Context, v *Visit) error {
	query := `
		INSERT INTO visits (id, company_id, property_id, created_by_user_id,
		                    worker_name, note, service_type, service_checklist, photos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	if v.ServiceChecklist == nil {
		v.ServiceChecklist = pq.StringArray{}
	}

	if err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		v.ID,
		v.CompanyID,
		v.PropertyID,
		v.CreatedByUserID,
		v.WorkerName,
		v.Note,
		v.ServiceType,
		v.ServiceChecklist,
		v.Photos,
	).Scan(&v.CreatedAt); err != nil {
		return fmt.Errorf("create visit: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, propertyID, visitID string) (*Visit, error) {
	if uuid.Validate(visitID) != nil {
		return nil, fmt.Errorf("get visit: %w", core.ErrNotFound)
	}

	var v Visit
	err := core.Conn(ctx, r.db).GetContext(ctx, &v,
		visitSelect+` WHERE v.id = $1 AND v.property_id = $2`, visitID, propertyID)
	if core.IsNoRows(err) {
		return nil, fmt.Errorf("get visit: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get visit: %w", err)
	}

	return &v, nil
}

func (r *repository) ListByProperty(ctx context.Context, propertyID string) ([]Visit, error) {
	visits := []Visit{}
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &visits,
		visitSelect+` WHERE v.property_id = $1 ORDER BY v.created_at DESC, v.id DESC`,
		propertyID,
	); err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

func (r *repository) Reactions(ctx context.Context, visitIDs []string) ([]Reaction, error) {
	if len(visitIDs) == 0 {
		return []Reaction{}, nil
	}

	query := `
		SELECT r.visit_id, r.user_id, r.emoji, COALESCE(u.name, '') AS name,
		       u.username, r.created_at
		FROM visit_reactions r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.visit_id = ANY($1::uuid[])
		ORDER BY r.created_at, r.user_id`

	reactions := []Reaction{}
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &reactions, query,
		pq.StringArray(visitIDs),
	); err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	return reactions, nil
}

// ReactionOf returns the user's current emoji, or an empty string.
func (r *repository) ReactionOf(ctx context.Context, visitID, userID string) (string, error) {
	var emoji string
	err := core.Conn(ctx, r.db).GetContext(ctx, &emoji, `
		SELECT emoji FROM visit_reactions
		WHERE visit_id = $1 AND user_id = $2`, visitID, userID)
	if core.IsNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get reaction: %w", err)
	}
	return emoji, nil
}

func (r *repository) SetReaction(ctx context.Context, visitID, userID, emoji string) error {
	if _, err := core.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO visit_reactions (visit_id, user_id, emoji)
		VALUES ($1, $2, $3)
		ON CONFLICT (visit_id, user_id)
		DO UPDATE SET emoji = EXCLUDED.emoji`, visitID, userID, emoji,
	); err != nil {
		return fmt.Errorf("set reaction: %w", err)
	}
	return nil
}

func (r *repository) DeleteReaction(ctx context.Context, visitID, userID string) error {
	if _, err := core.Conn(ctx, r.db).ExecContext(ctx, `
		DELETE FROM visit_reactions
		WHERE visit_id = $1 AND user_id = $2`, visitID, userID,
	); err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return nil
}
