package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
	"github.com/imobsites/imobsites-panel/pkg/database"
)

const propertyCodeConstraint = "properties_tenant_code_key"

const propertyColumns = `
	id, tenant_id, code, title, COALESCE(description, ''), purpose, property_type, status,
	price, area, bedrooms, bathrooms, parking_spaces,
	COALESCE(street, ''), COALESCE(number, ''), COALESCE(neighborhood, ''), COALESCE(city, ''),
	COALESCE(state, ''), COALESCE(postal_code, ''), is_featured, created_at, updated_at`

// PostgresPropertyRepository implements PropertyRepository using PostgreSQL
type PostgresPropertyRepository struct {
	db DBTX
}

// NewPostgresPropertyRepository creates a new PostgresPropertyRepository
func NewPostgresPropertyRepository(db DBTX) *PostgresPropertyRepository {
	return &PostgresPropertyRepository{db: db}
}

func scanProperty(row pgx.Row) (*domain.Property, error) {
	p := &domain.Property{}
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Code, &p.Title, &p.Description, &p.Purpose, &p.PropertyType, &p.Status,
		&p.Price, &p.Area, &p.Bedrooms, &p.Bathrooms, &p.ParkingSpaces,
		&p.Street, &p.Number, &p.Neighborhood, &p.City,
		&p.State, &p.PostalCode, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns one page of the tenant's properties, newest first
func (r *PostgresPropertyRepository) List(ctx context.Context, f domain.PropertyFilter) ([]*domain.Property, int, error) {
	w := &whereBuilder{}
	w.add("tenant_id = ?", f.TenantID)
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Purpose != "" {
		w.add("purpose = ?", f.Purpose)
	}
	if f.City != "" {
		w.add("LOWER(city) = LOWER(?)", f.City)
	}
	if f.Search != "" {
		w.addSearch(f.Search, "code", "title", "neighborhood")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM properties `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + propertyColumns + ` FROM properties ` + w.sql() +
		` ORDER BY created_at DESC LIMIT ` + w.next(f.PerPage) + ` OFFSET ` + w.next(offset(f.Page, f.PerPage))
	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	props := make([]*domain.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		props = append(props, p)
	}
	return props, total, rows.Err()
}

// GetByID retrieves a property of the tenant
func (r *PostgresPropertyRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Property, error) {
	p, err := scanProperty(r.db.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a property
func (r *PostgresPropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO properties (id, tenant_id, code, title, description, purpose, property_type, status,
		                        price, area, bedrooms, bathrooms, parking_spaces, street, number,
		                        neighborhood, city, state, postal_code, is_featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		p.ID, p.TenantID, p.Code, p.Title, nullStringOrValue(p.Description), p.Purpose, p.PropertyType, p.Status,
		p.Price, p.Area, p.Bedrooms, p.Bathrooms, p.ParkingSpaces, nullStringOrValue(p.Street), nullStringOrValue(p.Number),
		nullStringOrValue(p.Neighborhood), nullStringOrValue(p.City), nullStringOrValue(p.State),
		nullStringOrValue(p.PostalCode), p.IsFeatured, p.CreatedAt, p.UpdatedAt,
	)
	if database.IsUniqueViolation(err, propertyCodeConstraint) {
		return ErrDuplicateCode
	}
	return err
}

// Update replaces the editable fields
func (r *PostgresPropertyRepository) Update(ctx context.Context, p *domain.Property) error {
	p.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, `
		UPDATE properties
		SET code = $3, title = $4, description = $5, purpose = $6, property_type = $7, status = $8,
		    price = $9, area = $10, bedrooms = $11, bathrooms = $12, parking_spaces = $13, street = $14,
		    number = $15, neighborhood = $16, city = $17, state = $18, postal_code = $19,
		    is_featured = $20, updated_at = $21
		WHERE tenant_id = $1 AND id = $2`,
		p.TenantID, p.ID, p.Code, p.Title, nullStringOrValue(p.Description), p.Purpose, p.PropertyType, p.Status,
		p.Price, p.Area, p.Bedrooms, p.Bathrooms, p.ParkingSpaces, nullStringOrValue(p.Street),
		nullStringOrValue(p.Number), nullStringOrValue(p.Neighborhood), nullStringOrValue(p.City),
		nullStringOrValue(p.State), nullStringOrValue(p.PostalCode), p.IsFeatured, p.UpdatedAt,
	)
	if database.IsUniqueViolation(err, propertyCodeConstraint) {
		return ErrDuplicateCode
	}
	return affected(tag, err)
}

// Delete removes a property; images and contact links follow by cascade
func (r *PostgresPropertyRepository) Delete(ctx context.Context, tenantID, id string) error {
	return affected(r.db.Exec(ctx, `DELETE FROM properties WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

// Neighborhoods returns the distinct neighborhoods of a city, sorted
func (r *PostgresPropertyRepository) Neighborhoods(ctx context.Context, tenantID, city string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT neighborhood FROM properties
		WHERE tenant_id = $1 AND LOWER(city) = LOWER($2) AND COALESCE(neighborhood, '') <> ''
		ORDER BY neighborhood`, tenantID, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
