package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/pkg/database"
)

const planColumns = `
	id, code, name, COALESCE(description, ''), billing_cycle, months,
	price_per_month, total_amount, features, is_active, is_featured, sort_order,
	created_at, updated_at`

// PostgresPlanRepository implements PlanRepository using PostgreSQL
type PostgresPlanRepository struct {
	db DBTX
}

// NewPostgresPlanRepository creates a new PostgresPlanRepository
func NewPostgresPlanRepository(db DBTX) *PostgresPlanRepository {
	return &PostgresPlanRepository{db: db}
}

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	p := &domain.Plan{}
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.BillingCycle, &p.Months,
		&p.PricePerMonth, &p.TotalAmount, &p.Features, &p.IsActive, &p.IsFeatured, &p.SortOrder,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return p, nil
}

func (r *PostgresPlanRepository) getOne(ctx context.Context, where string, arg any) (*domain.Plan, error) {
	p, err := scanPlan(r.db.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE `+where, arg))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// List returns plans by sort order
func (r *PostgresPlanRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, months ASC, code ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]*domain.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetByID retrieves a plan by ID
func (r *PostgresPlanRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByCode retrieves a plan by its checkout code
func (r *PostgresPlanRepository) GetByCode(ctx context.Context, code string) (*domain.Plan, error) {
	return r.getOne(ctx, "code = $1", code)
}

// ExistsByCode checks the code against every plan except excludeID
func (r *PostgresPlanRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM plans WHERE code = $1 AND ($2 = '' OR id::text <> $2))`,
		code, excludeID,
	).Scan(&exists)
	return exists, err
}

func features(p *domain.Plan) []string {
	if p.Features == nil {
		return []string{}
	}
	return p.Features
}

// Create inserts a plan
func (r *PostgresPlanRepository) Create(ctx context.Context, p *domain.Plan) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO plans (id, code, name, description, billing_cycle, months, price_per_month, total_amount,
		                   features, is_active, is_featured, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Code, p.Name, nullStringOrValue(p.Description), p.BillingCycle, p.Months, p.PricePerMonth, p.TotalAmount,
		features(p), p.IsActive, p.IsFeatured, p.SortOrder, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// Update replaces a plan's editable fields
func (r *PostgresPlanRepository) Update(ctx context.Context, p *domain.Plan) error {
	p.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, `
		UPDATE plans
		SET code = $2, name = $3, description = $4, billing_cycle = $5, months = $6, price_per_month = $7,
		    total_amount = $8, features = $9, is_active = $10, sort_order = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.Code, p.Name, nullStringOrValue(p.Description), p.BillingCycle, p.Months, p.PricePerMonth,
		p.TotalAmount, features(p), p.IsActive, p.SortOrder, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFeatured unsets every featured flag then sets one
func (r *PostgresPlanRepository) SetFeatured(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		now := time.Now()
		if _, err := tx.Exec(ctx, `UPDATE plans SET is_featured = FALSE, updated_at = $1 WHERE is_featured = TRUE`, now); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE plans SET is_featured = TRUE, updated_at = $2 WHERE id = $1`, id, now)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetActive toggles whether the plan is offered at checkout
func (r *PostgresPlanRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE plans SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a plan no order references
func (r *PostgresPlanRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrPlanInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
