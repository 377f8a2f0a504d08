// AngelaMos | 2026
// repository.go

package company

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/visitpro/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id string) (*Company, error)
	GetByStripeCustomer(ctx context.Context, customerID string) (*Company, error)
	GetByStripeReference(ctx context.Context, subscriptionID, customerID string) (*Company, error)
	UpdateProfile(ctx context.Context, c *Company) error
	UpdateBilling(ctx context.Context, c *Company) error
	SetStripeCustomer(ctx context.Context, id, customerID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const companyColumns = `id, name, address, org_number, tax_id, logo_url,
	services_offered, billing_plan, billing_cycle, billing_client_range,
	subscription_status, trial_ends_at, stripe_customer_id,
	stripe_subscription_id, billing_synced_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Company) error {
	query := `
		INSERT INTO companies (id, name, services_offered)
		VALUES ($1, $2, $3)
		RETURNING ` + companyColumns

	if c.ServicesOffered == nil {
		c.ServicesOffered = []string{}
	}

	if err := core.Conn(ctx, r.db).GetContext(ctx, c, query,
		c.ID, c.Name, c.ServicesOffered,
	); err != nil {
		return fmt.Errorf("create company: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Company, error) {
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("get company: %w", core.ErrNotFound)
	}
	return r.getOne(ctx, "get company",
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
}

func (r *repository) GetByStripeCustomer(
	ctx context.Context,
	customerID string,
) (*Company, error) {
	if customerID == "" {
		return nil, fmt.Errorf("get company by customer: %w", core.ErrNotFound)
	}
	return r.getOne(ctx, "get company by customer",
		`SELECT `+companyColumns+` FROM companies
		WHERE stripe_customer_id = $1
		ORDER BY created_at
		LIMIT 1`, customerID)
}

func (r *repository) GetByStripeReference(
	ctx context.Context,
	subscriptionID, customerID string,
) (*Company, error) {
	if subscriptionID == "" && customerID == "" {
		return nil, fmt.Errorf("get company by stripe reference: %w", core.ErrNotFound)
	}
	return r.getOne(ctx, "get company by stripe reference",
		`SELECT `+companyColumns+` FROM companies
		WHERE ($1 <> '' AND stripe_subscription_id = $1)
		   OR ($2 <> '' AND stripe_customer_id = $2)
		ORDER BY (stripe_subscription_id = $1) DESC, created_at
		LIMIT 1`, subscriptionID, customerID)
}

func (r *repository) UpdateProfile(ctx context.Context, c *Company) error {
	query := `
		UPDATE companies
		SET name = $2, address = $3, org_number = $4, tax_id = $5,
		    logo_url = $6, services_offered = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &c.UpdatedAt, query,
		c.ID, c.Name, c.Address, c.OrgNumber, c.TaxID, c.LogoURL, c.ServicesOffered,
	)
	if core.IsNoRows(err) {
		return fmt.Errorf("update company: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}

	return nil
}

func (r *repository) UpdateBilling(ctx context.Context, c *Company) error {
	query := `
		UPDATE companies
		SET billing_plan = $2, billing_cycle = $3, billing_client_range = $4,
		    subscription_status = $5, trial_ends_at = $6,
		    stripe_customer_id = $7, stripe_subscription_id = $8,
		    billing_synced_at = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &c.UpdatedAt, query,
		c.ID,
		c.BillingPlan,
		c.BillingCycle,
		c.BillingClientRange,
		c.SubscriptionStatus,
		c.TrialEndsAt,
		c.StripeCustomerID,
		c.StripeSubscriptionID,
		c.BillingSyncedAt,
	)
	if core.IsNoRows(err) {
		return fmt.Errorf("update billing: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update billing: %w", err)
	}

	return nil
}

func (r *repository) SetStripeCustomer(ctx context.Context, id, customerID string) error {
	result, err := core.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE companies
		SET stripe_customer_id = $2, updated_at = NOW()
		WHERE id = $1`, id, customerID)
	if err != nil {
		return fmt.Errorf("set stripe customer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set stripe customer: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set stripe customer: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Company, error) {
	var c Company
	err := core.Conn(ctx, r.db).GetContext(ctx, &c, query, args...)
	if core.IsNoRows(err) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}
