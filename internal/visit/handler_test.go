// AngelaMos | 2026
// handler_test.go

package visit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/visitpro/internal/catalog"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/middleware"
)

func serve(handler http.HandlerFunc, p identity.Principal, body string, params map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithPrincipal(ctx, &p)

	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func oneOf(t *testing.T, v any, field string) []string {
	t.Helper()
	f, ok := reflect.TypeOf(v).FieldByName(field)
	require.True(t, ok)
	for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
		if values, found := strings.CutPrefix(rule, "oneof="); found {
			return strings.Fields(values)
		}
	}
	return nil
}

func TestValidationTagsFollowCatalog(t *testing.T) {
	assert.ElementsMatch(t, catalog.ServiceTypes(), oneOf(t, CreateRequest{}, "ServiceType"))

	emojis := oneOf(t, ReactionRequest{}, "Emoji")
	require.Len(t, emojis, 5)
	for _, e := range emojis {
		assert.True(t, catalog.ValidEmoji(e), e)
	}
}

func TestCreateHandlerValidatesBody(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	params := map[string]string{"id": propertyID}

	rec := serve(h.Create, worker, `{"serviceType":"spa"}`, params)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid serviceType is required", errorOf(t, rec))

	rec = serve(h.Create, worker, `{}`, params)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid serviceType is required", errorOf(t, rec))

	rec = serve(h.Create, worker, `{"serviceType":"pool_cleaning","note":"`+strings.Repeat("n", 5001)+`"}`, params)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "note must be at most 5000 characters", errorOf(t, rec))

	rec = serve(h.Create, worker,
		`{"serviceType":"pool_cleaning","photos":[{"url":"`+strings.Repeat("u", 2049)+`"}]}`, params)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "url must be at most 2048 characters", errorOf(t, rec))

	assert.Empty(t, f.repo.visits)

	rec = serve(h.Create, worker, `{"serviceType":" pool_cleaning "}`, params)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, f.repo.visits, 1)
}

func TestReactHandlerValidatesEmoji(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	created := f.createVisit(t, "pool_cleaning")
	params := map[string]string{"id": propertyID, "visitId": created.ID}

	rec := serve(h.React, client, `{"emoji":"💩"}`, params)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid emoji is required", errorOf(t, rec))
	assert.Empty(t, f.repo.reactions)

	rec = serve(h.React, client, `{"emoji":" 👍 "}`, params)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.repo.reactions, 1)
	assert.Equal(t, "👍", f.repo.reactions[0].Emoji)
}
