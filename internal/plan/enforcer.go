// AngelaMos | 2026
// enforcer.go

package plan

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/visitpro/internal/core"
)

// Usage describes how much of a capped resource a tenant has consumed.
// Limit and Remaining are nil when the plan is unbounded.
type Usage struct {
	Limit     *int
	Used      int
	Remaining *int
}

func (u Usage) CanCreate() bool {
	return u.Limit == nil || u.Used < *u.Limit
}

type Enforcer struct {
	db *sqlx.DB
}

func NewEnforcer(db *sqlx.DB) *Enforcer {
	return &Enforcer{db: db}
}

// Guard runs create only if the tenant is below its ceiling for res.
// For bounded plans the count and create share one transaction that holds
// a per-tenant, per-resource advisory lock, so concurrent creators are
// serialized and cannot overshoot.
func (e *Enforcer) Guard(
	ctx context.Context,
	companyID string,
	res Resource,
	create func(ctx context.Context) error,
) error {
	billingPlan, err := e.billingPlan(ctx, companyID)
	if err != nil {
		return err
	}

	limit, bounded := Limit(billingPlan, res)
	if !bounded {
		return create(ctx)
	}

	return core.InTx(ctx, e.db, func(ctx context.Context) error {
		conn := core.Conn(ctx, e.db)

		if err := core.AdvisoryXactLock(ctx, conn, lockKey(companyID, res)); err != nil {
			return fmt.Errorf("acquire plan lock: %w", err)
		}

		var used int
		if err := conn.GetContext(ctx, &used, countQuery(res), companyID); err != nil {
			return fmt.Errorf("count %s: %w", res, err)
		}

		if used >= limit {
			return core.PaymentRequiredError(limitMessage(res))
		}

		return create(ctx)
	})
}

func (e *Enforcer) Usage(
	ctx context.Context,
	companyID, billingPlan string,
	res Resource,
) (Usage, error) {
	var used int
	if err := core.Conn(ctx, e.db).GetContext(ctx, &used, countQuery(res), companyID); err != nil {
		return Usage{}, fmt.Errorf("count %s: %w", res, err)
	}

	usage := Usage{Used: used}
	if limit, bounded := Limit(billingPlan, res); bounded {
		remaining := max(limit-used, 0)
		usage.Limit = &limit
		usage.Remaining = &remaining
	}

	return usage, nil
}

func (e *Enforcer) billingPlan(ctx context.Context, companyID string) (string, error) {
	var billingPlan string
	err := core.Conn(ctx, e.db).GetContext(ctx, &billingPlan,
		`SELECT billing_plan FROM companies WHERE id = $1`, companyID)
	if core.IsNoRows(err) {
		return "", core.NotFoundError("Company not found")
	}
	if err != nil {
		return "", fmt.Errorf("get billing plan: %w", err)
	}
	return billingPlan, nil
}

func lockKey(companyID string, res Resource) string {
	return "plan:" + companyID + ":" + string(res)
}
