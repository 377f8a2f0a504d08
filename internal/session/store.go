// AngelaMos | 2026
// store.go

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
)

const (
	keyPrefix  = "sess:"
	tokenBytes = 32
)

type record struct {
	UserID             string  `json:"userId"`
	Role               string  `json:"role"`
	CompanyID          *string `json:"companyId"`
	Name               string  `json:"name"`
	CompanyAccessLevel string  `json:"companyAccessLevel,omitempty"`
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Create stores the principal under a fresh 256-bit token. The TTL is
// fixed here and never extended.
func (s *Store) Create(ctx context.Context, p identity.Principal) (string, error) {
	token, err := core.GenerateHexToken(tokenBytes)
	if err != nil {
		return "", err
	}

	rec := record{
		UserID:             p.UserID,
		Role:               string(p.Role),
		Name:               p.Name,
		CompanyAccessLevel: string(identity.NormalizeAccessLevel(p.Role, p.AccessLevel)),
	}
	if p.CompanyID != "" {
		companyID := p.CompanyID
		rec.CompanyID = &companyID
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

// Get returns nil without error when the token is unknown, expired or
// holds a record that cannot be trusted.
func (s *Store) Get(ctx context.Context, token string) (*identity.Principal, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil //nolint:nilerr // corrupt record reads as no session
	}

	role, ok := identity.ParseRole(rec.Role)
	if rec.UserID == "" || !ok {
		return nil, nil
	}

	level, _ := identity.ParseAccessLevel(rec.CompanyAccessLevel)
	if level == "" && role == identity.RoleOwner {
		level = identity.AccessOwner
	}

	companyID := ""
	if rec.CompanyID != nil {
		companyID = *rec.CompanyID
	}

	p := identity.NewPrincipal(rec.UserID, role, companyID, rec.Name, level)
	return &p, nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
