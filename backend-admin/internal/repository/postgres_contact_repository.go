package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
)

const contactColumns = `
	id, tenant_id, COALESCE(property_id::text, ''), name, COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(message, ''), status, created_at, updated_at`

// PostgresContactRepository implements ContactRepository using PostgreSQL
type PostgresContactRepository struct {
	db DBTX
}

// NewPostgresContactRepository creates a new PostgresContactRepository
func NewPostgresContactRepository(db DBTX) *PostgresContactRepository {
	return &PostgresContactRepository{db: db}
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := row.Scan(
		&c.ID, &c.TenantID, &c.PropertyID, &c.Name, &c.Email, &c.Phone,
		&c.Message, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns one page of leads, newest first
func (r *PostgresContactRepository) List(ctx context.Context, tenantID string, status domain.ContactStatus, page, perPage int) ([]*domain.Contact, int, error) {
	w := &whereBuilder{}
	w.add("tenant_id = ?", tenantID)
	if status != "" {
		w.add("status = ?", status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contacts `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + contactColumns + ` FROM contacts ` + w.sql() +
		` ORDER BY created_at DESC LIMIT ` + w.next(perPage) + ` OFFSET ` + w.next(offset(page, perPage))
	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	contacts := make([]*domain.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, c)
	}
	return contacts, total, rows.Err()
}

// GetByID retrieves a lead of the tenant
func (r *PostgresContactRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// Create inserts a lead
func (r *PostgresContactRepository) Create(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO contacts (id, tenant_id, property_id, name, email, phone, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.TenantID, nullStringOrValue(c.PropertyID), c.Name, nullStringOrValue(c.Email),
		nullStringOrValue(c.Phone), nullStringOrValue(c.Message), c.Status, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// UpdateStatus moves a lead to status
func (r *PostgresContactRepository) UpdateStatus(ctx context.Context, tenantID, id string, status domain.ContactStatus) error {
	return affected(r.db.Exec(ctx, `
		UPDATE contacts SET status = $3, updated_at = $4
		WHERE tenant_id = $1 AND id = $2`, tenantID, id, status, time.Now()))
}

// Delete removes a lead
func (r *PostgresContactRepository) Delete(ctx context.Context, tenantID, id string) error {
	return affected(r.db.Exec(ctx, `DELETE FROM contacts WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}
