// AngelaMos | 2026
// reconcile_test.go

package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/visitpro/internal/company"
	"github.com/carterperez-dev/visitpro/internal/config"
	"github.com/carterperez-dev/visitpro/internal/plan"
)

var testPrices = NewPriceTable(config.StripePrices{
	StarterMonthly: "price_starter_m",
	StarterYearly:  "price_starter_y",
	GrowthMonthly:  "49",
	GrowthYearly:   "490.5",
	ProMonthly:     "",
	ProYearly:      "abc",
})

func TestApplyPrefersConfiguredPriceOverMetadata(t *testing.T) {
	c := &company.Company{ID: "c1", BillingPlan: "growth"}

	Apply(c, Subscription{
		ID:         " sub_1 ",
		CustomerID: "cus_1",
		Status:     "TRIALING",
		TrialEnd:   1_700_000_000,
		PriceID:    "price_starter_m",
		Interval:   "year",
		Metadata: map[string]string{
			metaPlan:        "pro",
			metaCycle:       "yearly",
			metaClientRange: "16-40",
		},
	}, testPrices)

	assert.Equal(t, "starter", c.BillingPlan)
	assert.Equal(t, "monthly", c.BillingCycle)
	assert.Equal(t, "trialing", c.SubscriptionStatus)
	assert.Equal(t, "sub_1", c.StripeSubscriptionID)
	assert.Equal(t, "cus_1", c.StripeCustomerID)
	assert.Equal(t, "16-40", c.BillingClientRange)
	require.NotNil(t, c.TrialEndsAt)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), *c.TrialEndsAt)
}

func TestApplyFallsBackToMetadataThenInterval(t *testing.T) {
	c := &company.Company{BillingPlan: "starter", BillingClientRange: "0-15"}

	Apply(c, Subscription{
		PriceID:  "price_unknown",
		Interval: "month",
		Metadata: map[string]string{metaPlan: "Growth", metaClientRange: "bogus"},
	}, testPrices)

	assert.Equal(t, "growth", c.BillingPlan)
	assert.Equal(t, "monthly", c.BillingCycle)
	assert.Equal(t, "active", c.SubscriptionStatus)
	assert.Equal(t, "0-15", c.BillingClientRange)
	assert.Nil(t, c.TrialEndsAt)
}

func TestApplyKeepsPlanWhenNothingResolves(t *testing.T) {
	c := &company.Company{BillingPlan: "starter"}

	Apply(c, Subscription{Status: "canceled"}, testPrices)

	assert.Equal(t, "starter", c.BillingPlan)
	assert.Equal(t, "yearly", c.BillingCycle)
	assert.Equal(t, "canceled", c.SubscriptionStatus)
}

func TestPriceTableLineItem(t *testing.T) {
	item, ok := testPrices.LineItem(plan.Starter, Yearly, "visitpro")
	require.True(t, ok)
	assert.Equal(t, LineItem{PriceID: "price_starter_y"}, item)

	item, ok = testPrices.LineItem(plan.Growth, Yearly, "visitpro")
	require.True(t, ok)
	assert.Equal(t, LineItem{
		UnitAmount:  49050,
		Currency:    "eur",
		Interval:    "year",
		ProductName: "visitpro Growth (Yearly)",
	}, item)

	item, ok = testPrices.LineItem(plan.Growth, Monthly, "visitpro")
	require.True(t, ok)
	assert.Equal(t, int64(4900), item.UnitAmount)
	assert.Equal(t, "month", item.Interval)

	_, ok = testPrices.LineItem(plan.Pro, Monthly, "visitpro")
	assert.False(t, ok)
	_, ok = testPrices.LineItem(plan.Pro, Yearly, "visitpro")
	assert.False(t, ok)
}

func TestPriceTableLookup(t *testing.T) {
	p, c, ok := testPrices.Lookup(" price_starter_y ")
	require.True(t, ok)
	assert.Equal(t, plan.Starter, p)
	assert.Equal(t, Yearly, c)

	_, _, ok = testPrices.Lookup("")
	assert.False(t, ok)
}

func TestParseCycleAndRanges(t *testing.T) {
	c, ok := ParseCycle(" Monthly ")
	assert.True(t, ok)
	assert.Equal(t, Monthly, c)

	_, ok = ParseCycle("weekly")
	assert.False(t, ok)

	assert.True(t, ValidClientRange("41+"))
	assert.False(t, ValidClientRange("41"))
}
