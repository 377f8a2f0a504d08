// AngelaMos | 2026
// limits.go

package plan

import "strings"

type Plan string

const (
	Starter Plan = "starter"
	Growth  Plan = "growth"
	Pro     Plan = "pro"
)

func ParsePlan(s string) (Plan, bool) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(s))); p {
	case Starter, Growth, Pro:
		return p, true
	default:
		return "", false
	}
}

// Resource is a countable thing a tenant's plan caps.
type Resource string

const (
	Clients    Resource = "clients"
	Properties Resource = "properties"
	Employees  Resource = "employees"
)

var limits = map[Plan]map[Resource]int{
	Starter: {Clients: 20, Properties: 20, Employees: 1},
	Growth:  {Clients: 60, Properties: 60, Employees: 5},
}

// Limit reports the ceiling for a resource under a billing plan. Pro,
// unknown and empty plans are unbounded.
func Limit(billingPlan string, res Resource) (int, bool) {
	p, ok := ParsePlan(billingPlan)
	if !ok {
		return 0, false
	}
	n, bounded := limits[p][res]
	return n, bounded
}

func limitMessage(res Resource) string {
	switch res {
	case Clients:
		return "Client limit reached for your subscription plan. Please upgrade to add more clients."
	case Properties:
		return "Property limit reached for your subscription plan. Please upgrade to add more properties."
	default:
		return "Employee account limit reached for your subscription plan. Please upgrade to add more employees."
	}
}

func countQuery(res Resource) string {
	switch res {
	case Clients:
		return `SELECT COUNT(*) FROM users
		WHERE company_id = $1 AND role = 'client' AND is_active`
	case Properties:
		return `SELECT COUNT(*) FROM properties WHERE company_id = $1`
	default:
		return `SELECT COUNT(*) FROM users
		WHERE company_id = $1 AND role = 'worker' AND is_active`
	}
}
