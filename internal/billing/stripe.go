// AngelaMos | 2026
// stripe.go

package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateCustomer(
	ctx context.Context,
	params CustomerParams,
) (string, error) {
	cp := &stripe.CustomerParams{}
	cp.Context = ctx
	if params.Email != "" {
		cp.Email = stripe.String(params.Email)
	}
	if params.Name != "" {
		cp.Name = stripe.String(params.Name)
	}
	cp.AddMetadata(metaCompanyID, params.CompanyID)

	customer, err := p.api.Customers.New(cp)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return customer.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(
	ctx context.Context,
	params CheckoutParams,
) (*CheckoutSession, error) {
	item := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(1)}
	if params.LineItem.PriceID != "" {
		item.Price = stripe.String(params.LineItem.PriceID)
	} else {
		item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(params.LineItem.Currency),
			UnitAmount: stripe.Int64(params.LineItem.UnitAmount),
			Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(params.LineItem.Interval),
			},
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(params.LineItem.ProductName),
			},
		}
	}

	sp := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(params.CustomerID),
		LineItems:  []*stripe.CheckoutSessionLineItemParams{item},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: params.Metadata,
		},
	}
	if params.TrialPeriodDays > 0 {
		sp.SubscriptionData.TrialPeriodDays = stripe.Int64(int64(params.TrialPeriodDays))
	}
	sp.Context = ctx
	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}

	sess, err := p.api.CheckoutSessions.New(sp)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return toCheckoutSession(sess), nil
}

func (p *StripeProvider) GetCheckoutSession(
	ctx context.Context,
	id string,
) (*CheckoutSession, error) {
	sp := &stripe.CheckoutSessionParams{}
	sp.Context = ctx

	sess, err := p.api.CheckoutSessions.Get(id, sp)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return toCheckoutSession(sess), nil
}

func (p *StripeProvider) GetSubscription(
	ctx context.Context,
	id string,
) (*Subscription, error) {
	sp := &stripe.SubscriptionParams{}
	sp.Context = ctx
	sp.AddExpand("items.data.price")

	sub, err := p.api.Subscriptions.Get(id, sp)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return toSubscription(sub), nil
}

func (p *StripeProvider) LatestSubscriptionID(
	ctx context.Context,
	customerID string,
) (string, error) {
	lp := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	lp.Context = ctx
	lp.Limit = stripe.Int64(1)
	lp.Single = true

	iter := p.api.Subscriptions.List(lp)
	for iter.Next() {
		return iter.Subscription().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list subscriptions: %w", err)
	}
	return "", nil
}

func (p *StripeProvider) CreatePortalSession(
	ctx context.Context,
	customerID, returnURL, configurationID string,
) (string, error) {
	pp := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	if configurationID != "" {
		pp.Configuration = stripe.String(configurationID)
	}
	pp.Context = ctx

	sess, err := p.api.BillingPortalSessions.New(pp)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Kind: EventKind(event.Type)}

	switch out.Kind {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Checkout = toCheckoutSession(&sess)
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		out.Subscription = toSubscription(&sub)
	}

	return out, nil
}

func toCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:       sess.ID,
		URL:      sess.URL,
		Mode:     string(sess.Mode),
		Status:   string(sess.Status),
		Metadata: sess.Metadata,
	}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
	}
	return out
}

func toSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:       sub.ID,
		Status:   string(sub.Status),
		TrialEnd: sub.TrialEnd,
		Metadata: sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		out.PriceID = price.ID
		if price.Recurring != nil {
			out.Interval = string(price.Recurring.Interval)
		}
	}
	return out
}
