// AngelaMos | 2026
// handler.go

package company

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
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(middleware.RequireRole(identity.RoleOwner, identity.RoleWorker))
		r.Use(middleware.RequireCompany)

		r.Get("/company/me", h.Me)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCompanyManager)

			r.Patch("/company", h.Update)
			r.Get("/company/team", h.Team)
			r.Patch("/company/team/{userId}/access-level", h.SetAccessLevel)
			r.Post("/company/team/invite-worker", h.InviteWorker)
			r.Delete("/company/team/{userId}", h.RemoveMember)
		})
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Me(r.Context(), principal(r))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Update(r.Context(), principal(r), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Team(r.Context(), principal(r))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) SetAccessLevel(w http.ResponseWriter, r *http.Request) {
	var req AccessLevelRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.service.SetAccessLevel(
		r.Context(),
		principal(r),
		chi.URLParam(r, "userId"),
		req.AccessLevel,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) InviteWorker(w http.ResponseWriter, r *http.Request) {
	var req InviteWorkerRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}
	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.InviteWorker(r.Context(), principal(r), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveMember(r.Context(), principal(r), chi.URLParam(r, "userId")); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]bool{"ok": true})
}

func principal(r *http.Request) identity.Principal {
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		return *p
	}
	return identity.Principal{}
}
