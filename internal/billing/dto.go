// AngelaMos | 2026
// dto.go

package billing

import "strings"

type StartTrialRequest struct {
	Plan         string `json:"plan"         validate:"required,oneof=starter growth pro"`
	ClientRange  string `json:"clientRange"  validate:"required,oneof=0-15 16-40 41+"`
	BillingCycle string `json:"billingCycle" validate:"omitempty,oneof=monthly yearly"`
	ReturnURL    string `json:"returnUrl"    validate:"max=2048"`
}

func (r *StartTrialRequest) Normalize() {
	r.Plan = strings.ToLower(strings.TrimSpace(r.Plan))
	r.ClientRange = strings.TrimSpace(r.ClientRange)
	r.BillingCycle = strings.ToLower(strings.TrimSpace(r.BillingCycle))
}

type StartTrialResponse struct {
	Status      string `json:"status"`
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

type ConfirmCheckoutRequest struct {
	SessionID string `json:"sessionId"`
}

type ConfirmCheckoutResponse struct {
	Status       string `json:"status"`
	BillingPlan  string `json:"billingPlan"`
	BillingCycle string `json:"billingCycle"`
}

type PortalSessionRequest struct {
	ReturnURL string `json:"returnUrl"`
}

type PortalSessionResponse struct {
	URL string `json:"url"`
}
