// AngelaMos | 2026
// service.go

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/visitpro/internal/company"
	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/plan"
	"github.com/carterperez-dev/visitpro/internal/user"
)

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

type CompanyStore interface {
	GetByID(ctx context.Context, id string) (*company.Company, error)
	GetByStripeCustomer(ctx context.Context, customerID string) (*company.Company, error)
	GetByStripeReference(ctx context.Context, subscriptionID, customerID string) (*company.Company, error)
	UpdateBilling(ctx context.Context, c *company.Company) error
	SetStripeCustomer(ctx context.Context, id, customerID string) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Options struct {
	BrandName             string
	PublicURL             string
	TrialPeriodDays       int
	PortalConfigurationID string
	SyncInterval          time.Duration
	WebhookEnabled        bool
}

type Service struct {
	provider  Provider
	companies CompanyStore
	users     UserLookup
	prices    PriceTable
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	provider Provider,
	companies CompanyStore,
	users UserLookup,
	prices PriceTable,
	opts Options,
	logger *slog.Logger,
) *Service {
	return &Service{
		provider:  provider,
		companies: companies,
		users:     users,
		prices:    prices,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) StartTrial(
	ctx context.Context,
	p *identity.Principal,
	req StartTrialRequest,
) (*StartTrialResponse, error) {
	selectedPlan, planOK := plan.ParsePlan(req.Plan)
	clientRange := strings.TrimSpace(req.ClientRange)
	cycleRaw := req.BillingCycle
	if strings.TrimSpace(cycleRaw) == "" {
		cycleRaw = string(Yearly)
	}
	cycle, cycleOK := ParseCycle(cycleRaw)
	if !planOK || !cycleOK || !ValidClientRange(clientRange) {
		return nil, core.BadRequestError("Invalid billing selection")
	}

	c, err := s.company(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	if s.provider == nil {
		return nil, core.UnavailableError("Stripe is not configured")
	}

	item, ok := s.prices.LineItem(selectedPlan, cycle, s.opts.BrandName)
	if !ok {
		return nil, core.UnavailableError("Stripe price is not configured for this plan")
	}

	returnURL := s.returnURL(req.ReturnURL, "/#/onboarding/company")
	separator := "?"
	if strings.Contains(returnURL, "?") {
		separator = "&"
	}

	customerID, err := s.ensureCustomer(ctx, c, p.UserID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		metaCompanyID:   c.ID,
		metaPlan:        string(selectedPlan),
		metaCycle:       string(cycle),
		metaClientRange: clientRange,
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID:      customerID,
		LineItem:        item,
		TrialPeriodDays: s.opts.TrialPeriodDays,
		Metadata:        metadata,
		SuccessURL:      returnURL + separator + "stripe=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       returnURL + separator + "stripe=cancel",
	})
	if err != nil {
		return nil, core.UpstreamError(err, "Failed to create checkout session")
	}

	c.BillingPlan = string(selectedPlan)
	c.BillingCycle = string(cycle)
	c.BillingClientRange = clientRange
	c.SubscriptionStatus = "incomplete"
	if err := s.companies.UpdateBilling(ctx, c); err != nil {
		return nil, fmt.Errorf("save billing selection: %w", err)
	}

	return &StartTrialResponse{
		Status:      "checkout_required",
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

func (s *Service) ConfirmCheckout(
	ctx context.Context,
	p *identity.Principal,
	sessionID string,
) (*ConfirmCheckoutResponse, error) {
	if s.provider == nil {
		return nil, core.UnavailableError("Stripe is not configured")
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, core.BadRequestError("sessionId is required")
	}

	c, err := s.company(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, core.UpstreamError(err, "Failed to load checkout session")
	}
	if session.Mode != "subscription" || session.Metadata[metaCompanyID] != c.ID {
		return nil, core.BadRequestError("Invalid checkout session")
	}
	if session.Status != "complete" {
		return nil, core.BadRequestError("Checkout is not complete yet")
	}
	if session.SubscriptionID == "" {
		return nil, core.BadRequestError("Stripe subscription was not created")
	}

	sub, err := s.provider.GetSubscription(ctx, session.SubscriptionID)
	if err != nil {
		return nil, core.UpstreamError(err, "Failed to load subscription")
	}

	if err := s.apply(ctx, c, *sub); err != nil {
		return nil, err
	}

	return &ConfirmCheckoutResponse{
		Status:       c.SubscriptionStatus,
		BillingPlan:  strings.ToLower(c.BillingPlan),
		BillingCycle: orDefault(strings.ToLower(c.BillingCycle), string(Yearly)),
	}, nil
}

func (s *Service) PortalSession(
	ctx context.Context,
	p *identity.Principal,
	returnURLRaw string,
) (*PortalSessionResponse, error) {
	if s.provider == nil {
		return nil, core.UnavailableError("Stripe is not configured")
	}

	c, err := s.company(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, c, p.UserID)
	if err != nil {
		return nil, err
	}

	url, err := s.provider.CreatePortalSession(
		ctx,
		customerID,
		s.returnURL(returnURLRaw, "/#/company?tab=3"),
		s.opts.PortalConfigurationID,
	)
	if err != nil {
		return nil, core.UpstreamError(err, "Failed to create billing portal session")
	}

	return &PortalSessionResponse{URL: url}, nil
}

// Sync pulls the subscription from Stripe when the stored state is stale.
// Failures are logged and the stored state is kept.
func (s *Service) Sync(ctx context.Context, c *company.Company) {
	if s.provider == nil || !c.NeedsBillingSync(s.now(), s.opts.SyncInterval) {
		return
	}

	if err := s.pull(ctx, c); err != nil {
		s.logger.WarnContext(ctx, "billing sync failed",
			"company_id", c.ID,
			"error", err,
		)
	}
}

func (s *Service) pull(ctx context.Context, c *company.Company) error {
	subscriptionID := strings.TrimSpace(c.StripeSubscriptionID)
	if subscriptionID == "" {
		latest, err := s.provider.LatestSubscriptionID(ctx, c.StripeCustomerID)
		if err != nil {
			return err
		}
		subscriptionID = latest
	}

	if subscriptionID == "" {
		now := s.now().UTC()
		c.BillingSyncedAt = &now
		return s.companies.UpdateBilling(ctx, c)
	}

	sub, err := s.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}

	return s.apply(ctx, c, *sub)
}

func (s *Service) HandleWebhook(
	ctx context.Context,
	payload []byte,
	signature string,
) error {
	if s.provider == nil || !s.opts.WebhookEnabled {
		return core.UnavailableError("Stripe webhook is not configured")
	}
	if strings.TrimSpace(signature) == "" {
		return core.BadRequestError("Missing stripe-signature header")
	}

	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			return core.BadRequestError("Webhook signature verification failed")
		}
		return fmt.Errorf("parse webhook: %w", err)
	}

	ctx, span := core.StartSpan(ctx, "billing.webhook",
		attribute.String("stripe.event_id", event.ID),
		attribute.String("stripe.event_type", string(event.Kind)),
	)
	defer span.End()

	switch {
	case event.Checkout != nil:
		err = s.handleCheckoutCompleted(ctx, event.Checkout)
	case event.Subscription != nil:
		err = s.handleSubscriptionChanged(ctx, event.Subscription)
	default:
		core.AddSpanEvent(ctx, "billing.webhook.ignored")
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		return err
	}

	return nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, session *CheckoutSession) error {
	if session.Mode != "subscription" || session.SubscriptionID == "" {
		return nil
	}

	var (
		c   *company.Company
		err error
	)
	if companyID := strings.TrimSpace(session.Metadata[metaCompanyID]); companyID != "" {
		c, err = s.companies.GetByID(ctx, companyID)
	} else {
		c, err = s.companies.GetByStripeCustomer(ctx, session.CustomerID)
	}
	if errors.Is(err, core.ErrNotFound) {
		core.AddSpanEvent(ctx, "billing.webhook.company_not_found")
		return nil
	}
	if err != nil {
		return err
	}

	sub, err := s.provider.GetSubscription(ctx, session.SubscriptionID)
	if err != nil {
		return err
	}

	return s.apply(ctx, c, *sub)
}

func (s *Service) handleSubscriptionChanged(ctx context.Context, sub *Subscription) error {
	var (
		c   *company.Company
		err error
	)
	if companyID := strings.TrimSpace(sub.Metadata[metaCompanyID]); companyID != "" {
		c, err = s.companies.GetByID(ctx, companyID)
	} else {
		c, err = s.companies.GetByStripeReference(ctx, sub.ID, sub.CustomerID)
	}
	if errors.Is(err, core.ErrNotFound) {
		core.AddSpanEvent(ctx, "billing.webhook.company_not_found")
		return nil
	}
	if err != nil {
		return err
	}

	return s.apply(ctx, c, *sub)
}

func (s *Service) apply(ctx context.Context, c *company.Company, sub Subscription) error {
	Apply(c, sub, s.prices)
	now := s.now().UTC()
	c.BillingSyncedAt = &now

	if err := s.companies.UpdateBilling(ctx, c); err != nil {
		return fmt.Errorf("save billing state: %w", err)
	}

	core.AddSpanEvent(ctx, "billing.applied",
		attribute.String("company.id", c.ID),
		attribute.String("subscription.status", c.SubscriptionStatus),
	)
	return nil
}

func (s *Service) ensureCustomer(
	ctx context.Context,
	c *company.Company,
	userID string,
) (string, error) {
	if id := strings.TrimSpace(c.StripeCustomerID); id != "" {
		return id, nil
	}

	var email string
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		email = u.Email
	} else if !errors.Is(err, core.ErrNotFound) {
		return "", fmt.Errorf("load billing contact: %w", err)
	}

	customerID, err := s.provider.CreateCustomer(ctx, CustomerParams{
		Email:     email,
		Name:      c.Name,
		CompanyID: c.ID,
	})
	if err != nil {
		return "", core.UpstreamError(err, "Failed to create Stripe customer")
	}

	if err := s.companies.SetStripeCustomer(ctx, c.ID, customerID); err != nil {
		return "", fmt.Errorf("save stripe customer: %w", err)
	}
	c.StripeCustomerID = customerID

	return customerID, nil
}

func (s *Service) company(ctx context.Context, id string) (*company.Company, error) {
	if id == "" {
		return nil, core.UnauthorizedError("Unauthorized")
	}
	c, err := s.companies.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("Company not found")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) returnURL(raw, fallbackPath string) string {
	raw = strings.TrimSpace(raw)
	if absoluteURL.MatchString(raw) {
		return raw
	}
	return strings.TrimSuffix(s.opts.PublicURL, "/") + fallbackPath
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
