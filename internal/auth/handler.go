// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/middleware"
	"github.com/carterperez-dev/visitpro/internal/user"
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

// RegisterRoutes mounts /auth. limiter guards the credential endpoints.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.With(limiter).Post("/signup-company", h.SignupCompany)
		r.With(limiter).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Patch("/profile", h.UpdateProfile)
			r.With(limiter).Post("/change-password", h.ChangePassword)
			r.Post("/logout", h.Logout)
		})
	})
}

func (h *Handler) SignupCompany(w http.ResponseWriter, r *http.Request) {
	var req SignupCompanyRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}
	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, "companyName, email and password are required")
		return
	}

	resp, err := h.service.SignupCompany(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}
	req.Normalize()

	if (req.Email == "" && req.Username == "") || req.Password == "" {
		core.BadRequest(w, "email or username and password are required")
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(w, core.UnauthorizedError("Invalid credentials"))
			return
		}
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, UserEnvelope{User: user.ToResponse(u)})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, UserEnvelope{User: user.ToResponse(u)})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.ChangePassword(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]bool{"ok": true})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.GetSessionToken(r.Context())); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}
