// AngelaMos | 2026
// entity.go

package company

import (
	"time"

	"github.com/lib/pq"
)

type Company struct {
	ID                   string         `db:"id"`
	Name                 string         `db:"name"`
	Address              string         `db:"address"`
	OrgNumber            string         `db:"org_number"`
	TaxID                string         `db:"tax_id"`
	LogoURL              string         `db:"logo_url"`
	ServicesOffered      pq.StringArray `db:"services_offered"`
	BillingPlan          string         `db:"billing_plan"`
	BillingCycle         string         `db:"billing_cycle"`
	BillingClientRange   string         `db:"billing_client_range"`
	SubscriptionStatus   string         `db:"subscription_status"`
	TrialEndsAt          *time.Time     `db:"trial_ends_at"`
	StripeCustomerID     string         `db:"stripe_customer_id"`
	StripeSubscriptionID string         `db:"stripe_subscription_id"`
	BillingSyncedAt      *time.Time     `db:"billing_synced_at"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

// NeedsBillingSync reports whether the stored billing state is older than
// interval. Companies without any Stripe reference never need a pull.
func (c *Company) NeedsBillingSync(now time.Time, interval time.Duration) bool {
	if c.StripeSubscriptionID == "" && c.StripeCustomerID == "" {
		return false
	}
	if c.BillingSyncedAt == nil {
		return true
	}
	return now.Sub(*c.BillingSyncedAt) >= interval
}
