// AngelaMos | 2026
// handler.go

package visit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/middleware"
)

var fixedMessages = map[string]string{
	"serviceType": "Valid serviceType is required",
	"emoji":       "Valid emoji is required",
}

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

		r.Get("/properties/{id}/visits", h.List)
		r.With(middleware.RequireRole(identity.RoleOwner, identity.RoleWorker)).
			Post("/properties/{id}/visits", h.Create)
		r.With(middleware.RequireRole(identity.RoleClient)).
			Post("/properties/{id}/visits/{visitId}/reactions", h.React)
	})

	r.Get("/share/{token}/visits", h.Shared)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	visits, err := h.service.List(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, visits)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}
	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.ValidationMessage(err, fixedMessages))
		return
	}

	resp, err := h.service.Create(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	var req ReactionRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}
	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.ValidationMessage(err, fixedMessages))
		return
	}

	resp, err := h.service.React(
		r.Context(),
		principal(r),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "visitId"),
		req.Emoji,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Shared(w http.ResponseWriter, r *http.Request) {
	visits, err := h.service.Shared(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, visits)
}

func principal(r *http.Request) identity.Principal {
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		return *p
	}
	return identity.Principal{}
}
