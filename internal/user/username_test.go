// AngelaMos | 2026
// username_test.go

package user

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type takenNames map[string]bool

func (t takenNames) UsernameTaken(_ context.Context, username, _ string) (bool, error) {
	return t[strings.ToLower(username)], nil
}

type brokenChecker struct{}

func (brokenChecker) UsernameTaken(context.Context, string, string) (bool, error) {
	return false, errors.New("db down")
}

func TestAvailableUsername(t *testing.T) {
	ctx := context.Background()

	name, err := AvailableUsername(ctx, takenNames{}, "John", "")
	require.NoError(t, err)
	assert.Equal(t, "John", name)

	name, err = AvailableUsername(ctx, takenNames{"john": true, "john2": true}, "John", "")
	require.NoError(t, err)
	assert.Equal(t, "John3", name)

	all := takenNames{"ann": true}
	for n := 2; n < maxNumberedUsernames+2; n++ {
		all["ann"+strconv.Itoa(n)] = true
	}
	name, err = AvailableUsername(ctx, all, "Ann", "")
	require.NoError(t, err)
	assert.Len(t, name, len("Ann")+6)
	assert.True(t, strings.HasPrefix(name, "Ann"))

	_, err = AvailableUsername(ctx, brokenChecker{}, "John", "")
	require.Error(t, err)
}

func TestSuggestUsername(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		expected string
	}{
		{name: "first name", userName: "anna maria", email: "x@y.z", expected: "Anna"},
		{name: "lowercases rest", userName: "JOHN Smith", email: "x@y.z", expected: "John"},
		{name: "email fallback", userName: "  ", email: "marc.o@example.com", expected: "Marc.o"},
		{name: "client fallback", userName: "", email: "@example.com", expected: "Client"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SuggestUsername(tt.userName, tt.email))
		})
	}
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "bob", DefaultName("bob@example.com", "Worker"))
	assert.Equal(t, "Worker", DefaultName("", "Worker"))
}

func TestToResponseNullsEmptyFields(t *testing.T) {
	u := &User{ID: "u1", Role: "client", Name: "Ann", Email: "ann@example.com"}

	resp := ToResponse(u)

	assert.Nil(t, resp.Username)
	assert.Nil(t, resp.AvatarURL)
	assert.Nil(t, resp.CompanyID)
	assert.Equal(t, "member", resp.CompanyAccessLevel)
}

func TestAccessLevelNormalizesOwner(t *testing.T) {
	u := &User{Role: "owner", CompanyAccessLevel: "member"}
	assert.Equal(t, "owner", string(u.AccessLevel()))

	w := &User{Role: "worker", CompanyAccessLevel: "admin"}
	assert.Equal(t, "admin", string(w.AccessLevel()))
}

func TestDisplayName(t *testing.T) {
	username := "Ann"
	assert.Equal(t, "Ann", (&User{Username: &username, Name: "Anna"}).DisplayName())
	assert.Equal(t, "Anna", (&User{Name: "Anna"}).DisplayName())
	assert.Equal(t, "Client", (&User{}).DisplayName())
}
