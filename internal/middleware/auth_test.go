// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/visitpro/internal/identity"
)

type fakeSessions map[string]identity.Principal

func (f fakeSessions) Get(_ context.Context, token string) (*identity.Principal, error) {
	if token == "broken" {
		return nil, errors.New("redis down")
	}
	p, ok := f[token]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAuthenticator(t *testing.T) {
	sessions := fakeSessions{
		"good": identity.NewPrincipal("u1", identity.RoleOwner, "c1", "Acme", ""),
	}

	var seen *identity.Principal
	h := Authenticator(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPrincipal(r.Context())
		assert.Equal(t, "good", GetSessionToken(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	rec := serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorMessage(t, rec))

	rec = serve(h, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorMessage(t, rec))

	rec = serve(h, "Bearer stale")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Session expired", errorMessage(t, rec))

	rec = serve(h, "Bearer broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(h, "bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.UserID)
	assert.Equal(t, identity.AccessOwner, seen.AccessLevel)
}

func TestRequireRole(t *testing.T) {
	sessions := fakeSessions{
		"client": identity.NewPrincipal("u1", identity.RoleClient, "c1", "", ""),
		"owner":  identity.NewPrincipal("u2", identity.RoleOwner, "c1", "", ""),
	}
	h := Authenticator(sessions)(RequireRole(identity.RoleOwner, identity.RoleWorker)(okHandler))

	rec := serve(h, "Bearer client")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", errorMessage(t, rec))

	rec = serve(h, "Bearer owner")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(RequireRole(identity.RoleOwner)(okHandler), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireCompanyManager(t *testing.T) {
	sessions := fakeSessions{
		"admin":  identity.NewPrincipal("u1", identity.RoleWorker, "c1", "", identity.AccessAdmin),
		"member": identity.NewPrincipal("u2", identity.RoleWorker, "c1", "", identity.AccessMember),
	}
	h := Authenticator(sessions)(RequireCompanyManager(okHandler))

	assert.Equal(t, http.StatusOK, serve(h, "Bearer admin").Code)
	assert.Equal(t, http.StatusForbidden, serve(h, "Bearer member").Code)
}

func TestRequireCompany(t *testing.T) {
	sessions := fakeSessions{
		"loose": identity.NewPrincipal("u1", identity.RoleClient, "", "", ""),
	}
	h := Authenticator(sessions)(RequireCompany(okHandler))

	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer loose").Code)
}
