// AngelaMos | 2026
// handler.go

package billing

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/middleware"
)

const maxWebhookBytes = 1 << 20

var selectionMessages = map[string]string{
	"plan":         "Invalid billing selection",
	"clientRange":  "Invalid billing selection",
	"billingCycle": "Invalid billing selection",
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
	r.Route("/company/billing", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(middleware.RequireRole(identity.RoleOwner, identity.RoleWorker))
		r.Use(middleware.RequireCompany)

		r.Post("/start-trial", h.StartTrial)
		r.Post("/confirm-checkout", h.ConfirmCheckout)
		r.Post("/portal-session", h.PortalSession)
	})

	r.Post("/stripe/webhook", h.Webhook)
}

func (h *Handler) StartTrial(w http.ResponseWriter, r *http.Request) {
	var req StartTrialRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}
	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.ValidationMessage(err, selectionMessages))
		return
	}

	resp, err := h.service.StartTrial(r.Context(), middleware.GetPrincipal(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	var req ConfirmCheckoutRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.service.ConfirmCheckout(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		req.SessionID,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) PortalSession(w http.ResponseWriter, r *http.Request) {
	var req PortalSessionRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.service.PortalSession(
		r.Context(),
		middleware.GetPrincipal(r.Context()),
		req.ReturnURL,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		core.BadRequest(w, "Invalid webhook payload")
		return
	}

	if err := h.service.HandleWebhook(
		r.Context(),
		payload,
		r.Header.Get("Stripe-Signature"),
	); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, map[string]bool{"received": true})
}
