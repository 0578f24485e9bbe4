package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/pkg/database"
)

const tenantColumns = `
	id, name, slug, status,
	COALESCE(contact_name, ''), COALESCE(contact_email, ''), COALESCE(contact_phone, ''), COALESCE(document, ''),
	COALESCE(street, ''), COALESCE(number, ''), COALESCE(complement, ''), COALESCE(neighborhood, ''),
	COALESCE(city, ''), COALESCE(state, ''), COALESCE(postal_code, ''),
	created_at, updated_at`

// PostgresTenantRepository implements TenantRepository using PostgreSQL
type PostgresTenantRepository struct {
	db DBTX
}

// NewPostgresTenantRepository creates a new PostgresTenantRepository
func NewPostgresTenantRepository(db DBTX) *PostgresTenantRepository {
	return &PostgresTenantRepository{db: db}
}

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Status,
		&t.ContactName, &t.ContactEmail, &t.ContactPhone, &t.Document,
		&t.Address.Street, &t.Address.Number, &t.Address.Complement, &t.Address.Neighborhood,
		&t.Address.City, &t.Address.State, &t.Address.PostalCode,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Onboard inserts the tenant with its primary domain, settings and admin
// user, optionally linking a paid order, in one transaction
func (r *PostgresTenantRepository) Onboard(ctx context.Context, o *Onboarding) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		t := o.Tenant
		_, err := tx.Exec(ctx, `
			INSERT INTO tenants (id, name, slug, status, contact_name, contact_email, contact_phone, document,
			                     street, number, complement, neighborhood, city, state, postal_code, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			t.ID, t.Name, t.Slug, t.Status,
			nullStringOrValue(t.ContactName), nullStringOrValue(t.ContactEmail), nullStringOrValue(t.ContactPhone), nullStringOrValue(t.Document),
			nullStringOrValue(t.Address.Street), nullStringOrValue(t.Address.Number), nullStringOrValue(t.Address.Complement),
			nullStringOrValue(t.Address.Neighborhood), nullStringOrValue(t.Address.City), nullStringOrValue(t.Address.State),
			nullStringOrValue(t.Address.PostalCode), t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert tenant: %w", err)
		}

		if d := o.Domain; d != nil {
			if err := insertDomain(ctx, tx, d); err != nil {
				return err
			}
		}

		if s := o.Settings; s != nil {
			if err := saveSettings(ctx, tx, s); err != nil {
				return err
			}
		}

		if u := o.User; u != nil {
			_, err := tx.Exec(ctx, `
				INSERT INTO usuarios (id, tenant_id, nome, email, senha_hash, nivel, ativo,
				                      activation_token, activation_expires_at, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				u.ID, u.TenantID, u.Name, u.Email, nullStringOrValue(u.PasswordHash), u.Role, u.IsActive,
				nullStringOrValue(u.ActivationToken), u.ActivationExpiresAt, u.CreatedAt, u.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert user: %w", err)
			}
		}

		if o.OrderID != "" {
			tag, err := tx.Exec(ctx, `
				UPDATE orders SET tenant_id = $2, updated_at = $3
				WHERE id = $1 AND status = 'paid' AND tenant_id IS NULL`,
				o.OrderID, t.ID, time.Now(),
			)
			if err != nil {
				return fmt.Errorf("attach order: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrOrderNotAttachable
			}
		}
		return nil
	})
}

// GetByID retrieves a tenant by ID
func (r *PostgresTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := scanTenant(r.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return tenant, nil
}

// List retrieves tenants with pagination and filters
func (r *PostgresTenantRepository) List(ctx context.Context, f TenantFilter) ([]*domain.Tenant, int, error) {
	w := &whereBuilder{}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Search != "" {
		w.addSearch(f.Search, "name", "slug", "contact_email")
	}

	var totalCount int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM tenants "+w.sql(), w.args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	where := w.sql()
	limit := w.next(f.Limit)
	off := w.next(offset(f.Page, f.Limit))
	query := fmt.Sprintf(`SELECT %s FROM tenants %s ORDER BY created_at DESC LIMIT %s OFFSET %s`,
		tenantColumns, where, limit, off)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tenants := make([]*domain.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, t)
	}
	return tenants, totalCount, rows.Err()
}

// Update updates a tenant
func (r *PostgresTenantRepository) Update(ctx context.Context, t *domain.Tenant) error {
	t.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, `
		UPDATE tenants
		SET name = $2, contact_name = $3, contact_email = $4, contact_phone = $5, document = $6,
		    street = $7, number = $8, complement = $9, neighborhood = $10, city = $11, state = $12,
		    postal_code = $13, updated_at = $14
		WHERE id = $1`,
		t.ID, t.Name,
		nullStringOrValue(t.ContactName), nullStringOrValue(t.ContactEmail), nullStringOrValue(t.ContactPhone), nullStringOrValue(t.Document),
		nullStringOrValue(t.Address.Street), nullStringOrValue(t.Address.Number), nullStringOrValue(t.Address.Complement),
		nullStringOrValue(t.Address.Neighborhood), nullStringOrValue(t.Address.City), nullStringOrValue(t.Address.State),
		nullStringOrValue(t.Address.PostalCode), t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus flips the tenant status
func (r *PostgresTenantRepository) UpdateStatus(ctx context.Context, id string, status domain.TenantStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE tenants SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsBySlug checks if a tenant exists with the given slug
func (r *PostgresTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tenants WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func insertDomain(ctx context.Context, db DBTX, d *domain.TenantDomain) error {
	_, err := db.Exec(ctx, `
		INSERT INTO tenant_domains (id, tenant_id, domain, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.TenantID, d.Domain, d.IsPrimary, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert domain: %w", err)
	}
	return nil
}

// ListDomains returns the tenant's domains, primary first
func (r *PostgresTenantRepository) ListDomains(ctx context.Context, tenantID string) ([]*domain.TenantDomain, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, domain, is_primary, created_at
		FROM tenant_domains
		WHERE tenant_id = $1
		ORDER BY is_primary DESC, domain ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	domains := make([]*domain.TenantDomain, 0)
	for rows.Next() {
		d := &domain.TenantDomain{}
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Domain, &d.IsPrimary, &d.CreatedAt); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// DomainExists checks a host name across all tenants
func (r *PostgresTenantRepository) DomainExists(ctx context.Context, host string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tenant_domains WHERE domain = $1)`, host).Scan(&exists)
	return exists, err
}

// AddDomain adds a domain
func (r *PostgresTenantRepository) AddDomain(ctx context.Context, d *domain.TenantDomain) error {
	return insertDomain(ctx, r.db, d)
}

// GetDomain retrieves one of the tenant's domains
func (r *PostgresTenantRepository) GetDomain(ctx context.Context, tenantID, domainID string) (*domain.TenantDomain, error) {
	d := &domain.TenantDomain{}
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, domain, is_primary, created_at
		FROM tenant_domains WHERE tenant_id = $1 AND id = $2`, tenantID, domainID,
	).Scan(&d.ID, &d.TenantID, &d.Domain, &d.IsPrimary, &d.CreatedAt)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// DeleteDomain removes one of the tenant's domains
func (r *PostgresTenantRepository) DeleteDomain(ctx context.Context, tenantID, domainID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tenant_domains WHERE tenant_id = $1 AND id = $2`, tenantID, domainID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPrimaryDomain unsets all primary flags then sets one, atomically
func (r *PostgresTenantRepository) SetPrimaryDomain(ctx context.Context, tenantID, domainID string) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE tenant_domains SET is_primary = FALSE WHERE tenant_id = $1`, tenantID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE tenant_domains SET is_primary = TRUE WHERE tenant_id = $1 AND id = $2`, tenantID, domainID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetSettings retrieves the tenant's branding settings
func (r *PostgresTenantRepository) GetSettings(ctx context.Context, tenantID string) (*domain.TenantSettings, error) {
	s := &domain.TenantSettings{}
	err := r.db.QueryRow(ctx, `
		SELECT tenant_id, COALESCE(site_title, ''), COALESCE(logo_url, ''), COALESCE(primary_color, ''),
		       COALESCE(secondary_color, ''), COALESCE(contact_email, ''), COALESCE(contact_phone, ''),
		       COALESCE(whatsapp, ''), COALESCE(address, ''), COALESCE(facebook_url, ''),
		       COALESCE(instagram_url, ''), COALESCE(linkedin_url, ''), COALESCE(youtube_url, ''), updated_at
		FROM tenant_settings WHERE tenant_id = $1`, tenantID,
	).Scan(
		&s.TenantID, &s.SiteTitle, &s.LogoURL, &s.PrimaryColor,
		&s.SecondaryColor, &s.ContactEmail, &s.ContactPhone,
		&s.WhatsApp, &s.Address, &s.FacebookURL,
		&s.InstagramURL, &s.LinkedInURL, &s.YouTubeURL, &s.UpdatedAt,
	)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// SaveSettings upserts the tenant's branding settings
func (r *PostgresTenantRepository) SaveSettings(ctx context.Context, s *domain.TenantSettings) error {
	return saveSettings(ctx, r.db, s)
}

func saveSettings(ctx context.Context, db DBTX, s *domain.TenantSettings) error {
	s.UpdatedAt = time.Now()
	_, err := db.Exec(ctx, `
		INSERT INTO tenant_settings (tenant_id, site_title, logo_url, primary_color, secondary_color,
		                             contact_email, contact_phone, whatsapp, address, facebook_url,
		                             instagram_url, linkedin_url, youtube_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (tenant_id) DO UPDATE SET
			site_title = EXCLUDED.site_title, logo_url = EXCLUDED.logo_url,
			primary_color = EXCLUDED.primary_color, secondary_color = EXCLUDED.secondary_color,
			contact_email = EXCLUDED.contact_email, contact_phone = EXCLUDED.contact_phone,
			whatsapp = EXCLUDED.whatsapp, address = EXCLUDED.address,
			facebook_url = EXCLUDED.facebook_url, instagram_url = EXCLUDED.instagram_url,
			linkedin_url = EXCLUDED.linkedin_url, youtube_url = EXCLUDED.youtube_url,
			updated_at = EXCLUDED.updated_at`,
		s.TenantID, s.SiteTitle, nullStringOrValue(s.LogoURL), nullStringOrValue(s.PrimaryColor), nullStringOrValue(s.SecondaryColor),
		nullStringOrValue(s.ContactEmail), nullStringOrValue(s.ContactPhone), nullStringOrValue(s.WhatsApp), nullStringOrValue(s.Address),
		nullStringOrValue(s.FacebookURL), nullStringOrValue(s.InstagramURL), nullStringOrValue(s.LinkedInURL), nullStringOrValue(s.YouTubeURL),
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
