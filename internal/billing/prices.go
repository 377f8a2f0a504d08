// AngelaMos | 2026
// prices.go

package billing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/carterperez-dev/visitpro/internal/config"
	"github.com/carterperez-dev/visitpro/internal/plan"
)

type Cycle string

const (
	Monthly Cycle = "monthly"
	Yearly  Cycle = "yearly"
)

func ParseCycle(s string) (Cycle, bool) {
	switch c := Cycle(strings.ToLower(strings.TrimSpace(s))); c {
	case Monthly, Yearly:
		return c, true
	default:
		return "", false
	}
}

func (c Cycle) interval() string {
	if c == Yearly {
		return "year"
	}
	return "month"
}

func (c Cycle) label() string {
	if c == Yearly {
		return "Yearly"
	}
	return "Monthly"
}

var clientRanges = map[string]struct{}{
	"0-15":  {},
	"16-40": {},
	"41+":   {},
}

func ValidClientRange(s string) bool {
	_, ok := clientRanges[s]
	return ok
}

// LineItem is either a reference to an existing Stripe price or an inline
// recurring EUR price.
type LineItem struct {
	PriceID     string
	UnitAmount  int64
	Currency    string
	Interval    string
	ProductName string
}

type priceKey struct {
	plan  plan.Plan
	cycle Cycle
}

type PriceTable struct {
	values map[priceKey]string
}

func NewPriceTable(cfg config.StripePrices) PriceTable {
	return PriceTable{values: map[priceKey]string{
		{plan.Starter, Monthly}: strings.TrimSpace(cfg.StarterMonthly),
		{plan.Starter, Yearly}:  strings.TrimSpace(cfg.StarterYearly),
		{plan.Growth, Monthly}:  strings.TrimSpace(cfg.GrowthMonthly),
		{plan.Growth, Yearly}:   strings.TrimSpace(cfg.GrowthYearly),
		{plan.Pro, Monthly}:     strings.TrimSpace(cfg.ProMonthly),
		{plan.Pro, Yearly}:      strings.TrimSpace(cfg.ProYearly),
	}}
}

// Lookup maps a Stripe price id back to the plan and cycle it was
// configured for.
func (t PriceTable) Lookup(priceID string) (plan.Plan, Cycle, bool) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return "", "", false
	}
	for key, value := range t.values {
		if value == priceID {
			return key.plan, key.cycle, true
		}
	}
	return "", "", false
}

func (t PriceTable) LineItem(p plan.Plan, c Cycle, brand string) (LineItem, bool) {
	value := t.values[priceKey{p, c}]
	if strings.HasPrefix(value, "price_") {
		return LineItem{PriceID: value}, true
	}

	amount, err := strconv.ParseFloat(value, 64)
	if err != nil || amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return LineItem{}, false
	}

	return LineItem{
		UnitAmount:  int64(math.Round(amount * 100)),
		Currency:    "eur",
		Interval:    c.interval(),
		ProductName: fmt.Sprintf("%s %s (%s)", brand, planLabel(p), c.label()),
	}, true
}

func planLabel(p plan.Plan) string {
	switch p {
	case plan.Starter:
		return "Starter"
	case plan.Growth:
		return "Growth"
	default:
		return "Pro"
	}
}
