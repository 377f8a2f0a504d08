// AngelaMos | 2026
// handler.go

package property

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	owner := middleware.RequireRole(identity.RoleOwner)
	ownerOrClient := middleware.RequireRole(identity.RoleOwner, identity.RoleClient)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/properties", h.List)
		r.With(owner, middleware.RequireCompany).Post("/properties", h.Create)
		r.With(owner).Post("/properties/{id}/invite-worker", h.InviteWorker)
		r.With(ownerOrClient).Post("/properties/{id}/invite-client", h.InviteClient)
		r.With(ownerOrClient).Delete("/properties/{id}/clients/{clientUserId}", h.RemoveClient)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	properties, err := h.service.List(r.Context(), principal(r))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, properties)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}
	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Create(r.Context(), principal(r), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) InviteWorker(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !h.decodeInvite(w, r, &req) {
		return
	}

	resp, err := h.service.InviteWorker(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) InviteClient(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !h.decodeInvite(w, r, &req) {
		return
	}

	resp, err := h.service.InviteClient(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) RemoveClient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveClient(
		r.Context(),
		principal(r),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "clientUserId"),
	); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]bool{"ok": true})
}

func (h *Handler) decodeInvite(w http.ResponseWriter, r *http.Request, req *InviteRequest) bool {
	if err := core.DecodeJSON(r, req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return false
	}
	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

// principal is only called behind the authenticator.
func principal(r *http.Request) identity.Principal {
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		return *p
	}
	return identity.Principal{}
}
