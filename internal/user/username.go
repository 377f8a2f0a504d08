// AngelaMos | 2026
// username.go

package user

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/carterperez-dev/visitpro/internal/core"
)

const maxNumberedUsernames = 50

type UsernameChecker interface {
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
}

// AvailableUsername returns base when it is free, else base followed by the
// lowest free number from 2, else base with a random hex suffix.
func AvailableUsername(
	ctx context.Context,
	checker UsernameChecker,
	base, excludeID string,
) (string, error) {
	candidate := base
	for n := 2; n < maxNumberedUsernames+2; n++ {
		taken, err := checker.UsernameTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, n)
	}

	suffix, err := core.GenerateHexToken(3)
	if err != nil {
		return "", err
	}
	return base + suffix, nil
}

// SuggestUsername derives a display username from the first word of name,
// falling back to the local part of email.
func SuggestUsername(name, email string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return capitalizeFirst(fields[0])
	}

	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		local = "Client"
	}
	return capitalizeFirst(local)
}

// DefaultName is the name used for invited users that did not supply one.
func DefaultName(email, fallback string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local != "" {
		return local
	}
	return fallback
}

func capitalizeFirst(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
