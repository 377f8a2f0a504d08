// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
)

const (
	PrincipalKey    contextKey = "principal"
	SessionTokenKey contextKey = "session_token"
)

type SessionReader interface {
	Get(ctx context.Context, token string) (*identity.Principal, error)
}

// Authenticator resolves the bearer token into a principal. A missing
// token and an unknown token are reported with different messages.
func Authenticator(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				core.JSONError(w, core.UnauthorizedError("Unauthorized"))
				return
			}

			principal, err := sessions.Get(r.Context(), token)
			if err != nil {
				core.InternalServerError(w, err)
				return
			}
			if principal == nil {
				core.JSONError(w, core.UnauthorizedError("Session expired"))
				return
			}

			core.TagTenant(r.Context(), principal.CompanyID, principal.UserID, string(principal.Role))

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			ctx = context.WithValue(ctx, SessionTokenKey, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				core.JSONError(w, core.UnauthorizedError("Unauthorized"))
				return
			}

			if !principal.HasRole(roles...) {
				core.JSONError(w, core.ForbiddenError("Forbidden"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireCompany rejects principals that are not attached to a tenant.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r.Context())
		if principal == nil || !principal.HasCompany() {
			core.JSONError(w, core.UnauthorizedError("Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireCompanyManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r.Context())
		if principal == nil {
			core.JSONError(w, core.UnauthorizedError("Unauthorized"))
			return
		}

		if !principal.CanManageCompany() {
			core.JSONError(w, core.ForbiddenError("Forbidden"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func GetPrincipal(ctx context.Context) *identity.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*identity.Principal); ok {
		return p
	}
	return nil
}

func GetSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}

func GetUserID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.UserID
	}
	return ""
}

// WithPrincipal is used by tests and internal callers that already hold
// a resolved principal.
func WithPrincipal(ctx context.Context, p *identity.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}
