// AngelaMos | 2026
// cloudflare_test.go

package upload

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/visitpro/internal/config"
	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/middleware"
)

func newImages(t *testing.T, handler http.HandlerFunc) *Images {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewImagesWithClient(config.CloudflareConfig{
		AccountID:          "acct-1",
		APIToken:           "cf-token",
		ImagesAPIBase:      srv.URL + "/",
		ImagesDeliveryBase: "https://imagedelivery.net/hash",
	}, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateDirectUploadSendsForm(t *testing.T) {
	images := newImages(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/accounts/acct-1/images/v2/direct_upload", r.URL.Path)
		assert.Equal(t, "Bearer cf-token", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "false", r.FormValue("requireSignedURLs"))

		var meta Metadata
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("metadata")), &meta))
		assert.Equal(t, Metadata{FileName: "pool.jpg", ContentType: "image/jpeg", UploadedBy: "u1"}, meta)

		_, _ = io.WriteString(w, `{"success":true,"result":{"id":"img-9","uploadURL":"https://upload.imagedelivery.net/img-9"}}`)
	})

	upload, err := images.CreateDirectUpload(context.Background(), Metadata{
		FileName:    "pool.jpg",
		ContentType: "image/jpeg",
		UploadedBy:  "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, "img-9", upload.ID)
	assert.Equal(t, "https://upload.imagedelivery.net/img-9", upload.UploadURL)
	assert.Equal(t, "https://imagedelivery.net/hash/img-9/public", images.PublicURL(upload.ID))
}

func TestCreateDirectUploadReportsCloudflareError(t *testing.T) {
	images := newImages(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"success":false,"errors":[{"message":"Authentication error"}]}`)
	})

	_, err := images.CreateDirectUpload(context.Background(), Metadata{})
	require.Error(t, err)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, appErr.StatusCode)
	assert.Equal(t, "Authentication error", appErr.Message)
	assert.Equal(t, http.StatusForbidden, appErr.Details["cloudflareStatus"])
}

func TestCreateDirectUploadMissingUploadURL(t *testing.T) {
	images := newImages(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"result":{"id":"img-1"}}`)
	})

	_, err := images.CreateDirectUpload(context.Background(), Metadata{})
	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, defaultUpstream, appErr.Message)
	assert.Equal(t, http.StatusOK, appErr.Details["cloudflareStatus"])
}

func TestNotConfigured(t *testing.T) {
	images := NewImages(config.CloudflareConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.False(t, images.Configured())

	_, err := images.CreateDirectUpload(context.Background(), Metadata{})
	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotImplemented, appErr.StatusCode)
}

func TestPublicURLWithoutDeliveryBase(t *testing.T) {
	images := NewImages(config.CloudflareConfig{AccountID: "a", APIToken: "t"}, slog.Default())
	assert.Empty(t, images.PublicURL("img-1"))
}

func TestSignHandler(t *testing.T) {
	images := newImages(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"result":{"id":"img-2","uploadURL":"https://up/img-2"}}`)
	})

	req := httptest.NewRequest(http.MethodPost, "/uploads/sign",
		strings.NewReader(`{"fileName":"a.png","contentType":"image/png"}`))
	p := identity.NewPrincipal("u1", identity.RoleClient, "", "Ann", identity.AccessMember)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &p))
	rec := httptest.NewRecorder()

	NewHandler(images).Sign(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"uploadURL":"https://up/img-2","imageId":"img-2","publicUrl":"https://imagedelivery.net/hash/img-2/public"}`,
		rec.Body.String())
}
