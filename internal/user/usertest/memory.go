// AngelaMos | 2026
// memory.go

// Package usertest provides an in-memory user.Repository for service tests.
package usertest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/user"
)

type Memory struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func NewMemory(users ...*user.User) *Memory {
	m := &Memory{users: make(map[string]*user.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

// Get returns a copy of the stored user, or nil.
func (m *Memory) Get(id string) *user.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *Memory) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		if u.UsernameValue() != "" && strings.EqualFold(existing.UsernameValue(), u.UsernameValue()) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	u.IsActive = true
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*user.User, error) {
	if u := m.Get(id); u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (m *Memory) GetByEmail(_ context.Context, email string) (*user.User, error) {
	return m.find(func(u *user.User) bool {
		return u.Email == strings.ToLower(strings.TrimSpace(email))
	})
}

func (m *Memory) GetByUsername(_ context.Context, username string) (*user.User, error) {
	return m.find(func(u *user.User) bool {
		return u.UsernameValue() != "" && strings.EqualFold(u.UsernameValue(), strings.TrimSpace(username))
	})
}

func (m *Memory) GetByIDs(_ context.Context, ids []string) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []user.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *Memory) UsernameTaken(_ context.Context, username, excludeID string) (bool, error) {
	_, err := m.find(func(u *user.User) bool {
		return u.ID != excludeID && strings.EqualFold(u.UsernameValue(), strings.TrimSpace(username))
	})
	return err == nil, nil
}

func (m *Memory) UpdateProfile(_ context.Context, u *user.User) error {
	return m.update(u.ID, func(stored *user.User) {
		stored.Username = u.Username
		stored.AvatarURL = u.AvatarURL
	})
}

func (m *Memory) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return m.update(id, func(stored *user.User) { stored.PasswordHash = passwordHash })
}

func (m *Memory) UpdateAccessLevel(_ context.Context, id, level string) error {
	return m.update(id, func(stored *user.User) { stored.CompanyAccessLevel = level })
}

func (m *Memory) AttachCompany(_ context.Context, u *user.User) error {
	return m.update(u.ID, func(stored *user.User) {
		stored.CompanyID = u.CompanyID
		stored.CompanyAccessLevel = u.CompanyAccessLevel
		stored.Username = u.Username
	})
}

func (m *Memory) ListTeam(_ context.Context, companyID string) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []user.User{}
	for _, u := range m.users {
		if u.BelongsTo(companyID) && (u.Role == "owner" || u.Role == "worker") {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) AddPushToken(_ context.Context, id, token string) error {
	return m.update(id, func(stored *user.User) {
		if !slices.Contains(stored.PushTokens, token) {
			stored.PushTokens = append(stored.PushTokens, token)
		}
	})
}

func (m *Memory) RemovePushToken(_ context.Context, id, token string) error {
	return m.update(id, func(stored *user.User) {
		stored.PushTokens = slices.DeleteFunc(stored.PushTokens, func(t string) bool { return t == token })
	})
}

func (m *Memory) PrunePushTokens(_ context.Context, ids, tokens []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			u.PushTokens = slices.DeleteFunc(u.PushTokens, func(t string) bool {
				return slices.Contains(tokens, t)
			})
		}
	}
	return nil
}

// CountRole counts active users of role in companyID.
func (m *Memory) CountRole(companyID, role string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if u.BelongsTo(companyID) && u.Role == role && u.IsActive {
			n++
		}
	}
	return n
}

func (m *Memory) find(match func(*user.User) bool) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find user: %w", core.ErrNotFound)
}

func (m *Memory) update(id string, fn func(*user.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	fn(u)
	return nil
}

var _ user.Repository = (*Memory)(nil)
