// AngelaMos | 2026
// reconcile.go

package billing

import (
	"strings"
	"time"

	"github.com/carterperez-dev/visitpro/internal/company"
	"github.com/carterperez-dev/visitpro/internal/plan"
)

const (
	metaCompanyID   = "companyId"
	metaPlan        = "billingPlan"
	metaCycle       = "billingCycle"
	metaClientRange = "billingClientRange"
)

// Subscription is the provider-neutral view of a Stripe subscription.
type Subscription struct {
	ID         string
	CustomerID string
	Status     string
	TrialEnd   int64
	Metadata   map[string]string
	PriceID    string
	Interval   string
}

// Apply copies a subscription's state onto a company. The configured price
// wins over metadata, which can go stale after plan changes in the portal.
func Apply(c *company.Company, sub Subscription, prices PriceTable) {
	metaPlanValue, metaPlanOK := plan.ParsePlan(sub.Metadata[metaPlan])
	metaCycleValue, metaCycleOK := ParseCycle(sub.Metadata[metaCycle])
	metaRange := strings.TrimSpace(sub.Metadata[metaClientRange])

	var (
		resolvedPlan  plan.Plan
		resolvedCycle Cycle
	)

	if p, cyc, ok := prices.Lookup(sub.PriceID); ok {
		resolvedPlan, resolvedCycle = p, cyc
	} else {
		if metaPlanOK {
			resolvedPlan = metaPlanValue
		}
		switch {
		case metaCycleOK:
			resolvedCycle = metaCycleValue
		case strings.EqualFold(sub.Interval, "month"):
			resolvedCycle = Monthly
		default:
			resolvedCycle = Yearly
		}
	}

	c.StripeCustomerID = strings.TrimSpace(sub.CustomerID)
	c.StripeSubscriptionID = strings.TrimSpace(sub.ID)

	status := strings.ToLower(strings.TrimSpace(sub.Status))
	if status == "" {
		status = "active"
	}
	c.SubscriptionStatus = status

	c.TrialEndsAt = nil
	if sub.TrialEnd > 0 {
		trialEnd := time.Unix(sub.TrialEnd, 0).UTC()
		c.TrialEndsAt = &trialEnd
	}

	if resolvedPlan != "" {
		c.BillingPlan = string(resolvedPlan)
	}
	c.BillingCycle = string(resolvedCycle)

	if ValidClientRange(metaRange) {
		c.BillingClientRange = metaRange
	}
}
