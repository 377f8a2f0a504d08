// AngelaMos | 2026
// handler.go

package upload

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/middleware"
)

type SignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type SignResponse struct {
	UploadURL string `json:"uploadURL"`
	ImageID   string `json:"imageId"`
	PublicURL string `json:"publicUrl"`
}

type Signer interface {
	CreateDirectUpload(ctx context.Context, meta Metadata) (*DirectUpload, error)
	PublicURL(imageID string) string
}

type Handler struct {
	images Signer
}

func NewHandler(images Signer) *Handler {
	return &Handler{images: images}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/uploads", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(middleware.RequireRole(identity.RoleOwner, identity.RoleWorker, identity.RoleClient))

		r.Post("/sign", h.Sign)
	})
}

func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	upload, err := h.images.CreateDirectUpload(r.Context(), Metadata{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		UploadedBy:  middleware.GetUserID(r.Context()),
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, SignResponse{
		UploadURL: upload.UploadURL,
		ImageID:   upload.ID,
		PublicURL: h.images.PublicURL(upload.ID),
	})
}
