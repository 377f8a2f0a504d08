// AngelaMos | 2026
// provider.go

package billing

import (
	"context"
	"errors"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type CustomerParams struct {
	Email     string
	Name      string
	CompanyID string
}

type CheckoutParams struct {
	CustomerID      string
	LineItem        LineItem
	TrialPeriodDays int
	Metadata        map[string]string
	SuccessURL      string
	CancelURL       string
}

type CheckoutSession struct {
	ID             string
	URL            string
	Mode           string
	Status         string
	CustomerID     string
	SubscriptionID string
	Metadata       map[string]string
}

type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout.session.completed"
	EventSubscriptionCreated EventKind = "customer.subscription.created"
	EventSubscriptionUpdated EventKind = "customer.subscription.updated"
	EventSubscriptionDeleted EventKind = "customer.subscription.deleted"
)

// Event is a verified webhook event. Exactly one of Checkout and
// Subscription is set for the kinds this service handles.
type Event struct {
	ID           string
	Kind         EventKind
	Checkout     *CheckoutSession
	Subscription *Subscription
}

// Provider is the billing backend. A nil Provider means billing is not
// configured.
type Provider interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	LatestSubscriptionID(ctx context.Context, customerID string) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL, configurationID string) (string, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
