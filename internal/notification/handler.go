// AngelaMos | 2026
// handler.go

package notification

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the device routes. testLimiter throttles the test
// push endpoint and may be nil.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	testLimiter func(http.Handler) http.Handler,
) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/token", h.RegisterToken)
		r.Delete("/token", h.RemoveToken)

		if testLimiter != nil {
			r.With(testLimiter).Post("/test", h.SendTest)
		} else {
			r.Post("/test", h.SendTest)
		}
	})
}

func (h *Handler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.service.RegisterToken(r.Context(), middleware.GetUserID(r.Context()), req.Token); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) RemoveToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.service.RemoveToken(r.Context(), middleware.GetUserID(r.Context()), req.Token); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) SendTest(w http.ResponseWriter, r *http.Request) {
	var req TestRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.service.SendTest(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}
