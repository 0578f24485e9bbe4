package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

const templateColumns = `id, slug, name, event_type, subject, html_body, COALESCE(text_body, ''), is_active, created_at, updated_at`

// PostgresEmailRepository implements EmailRepository using PostgreSQL
type PostgresEmailRepository struct {
	db DBTX
}

// NewPostgresEmailRepository creates a new PostgresEmailRepository
func NewPostgresEmailRepository(db DBTX) *PostgresEmailRepository {
	return &PostgresEmailRepository{db: db}
}

func scanTemplate(row pgx.Row) (*domain.EmailTemplate, error) {
	t := &domain.EmailTemplate{}
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.EventType, &t.Subject, &t.HTMLBody, &t.TextBody, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *PostgresEmailRepository) oneTemplate(ctx context.Context, query string, args ...any) (*domain.EmailTemplate, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// ListTemplates lists templates, optionally for one event
func (r *PostgresEmailRepository) ListTemplates(ctx context.Context, event domain.EventType) ([]*domain.EmailTemplate, error) {
	w := &whereBuilder{}
	if event != "" {
		w.add("event_type = ?", event)
	}
	rows, err := r.db.Query(ctx, `SELECT `+templateColumns+` FROM email_templates `+w.sql()+` ORDER BY event_type ASC, id ASC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]*domain.EmailTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// GetTemplate retrieves a template by ID
func (r *PostgresEmailRepository) GetTemplate(ctx context.Context, id int64) (*domain.EmailTemplate, error) {
	return r.oneTemplate(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id)
}

// ExistsBySlug checks the slug against every template except excludeID
func (r *PostgresEmailRepository) ExistsBySlug(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM email_templates WHERE slug = $1 AND id <> $2)`, slug, excludeID).Scan(&exists)
	return exists, err
}

// CreateTemplate inserts a template and fills its ID
func (r *PostgresEmailRepository) CreateTemplate(ctx context.Context, t *domain.EmailTemplate) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO email_templates (slug, name, event_type, subject, html_body, text_body, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		t.Slug, t.Name, t.EventType, t.Subject, t.HTMLBody, nullStringOrValue(t.TextBody), t.IsActive, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
}

// UpdateTemplate replaces a template's editable fields
func (r *PostgresEmailRepository) UpdateTemplate(ctx context.Context, t *domain.EmailTemplate) error {
	t.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, `
		UPDATE email_templates
		SET slug = $2, name = $3, event_type = $4, subject = $5, html_body = $6, text_body = $7, is_active = $8, updated_at = $9
		WHERE id = $1`,
		t.ID, t.Slug, t.Name, t.EventType, t.Subject, t.HTMLBody, nullStringOrValue(t.TextBody), t.IsActive, t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTemplate removes a template
func (r *PostgresEmailRepository) DeleteTemplate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FirstActiveTemplate returns the lowest-id active template for event
func (r *PostgresEmailRepository) FirstActiveTemplate(ctx context.Context, event domain.EventType) (*domain.EmailTemplate, error) {
	return r.oneTemplate(ctx, `
		SELECT `+templateColumns+` FROM email_templates
		WHERE event_type = $1 AND is_active = TRUE
		ORDER BY id ASC
		LIMIT 1`, event)
}

// GetEmailSettings returns the single settings row
func (r *PostgresEmailRepository) GetEmailSettings(ctx context.Context) (*domain.EmailSettings, error) {
	s := &domain.EmailSettings{}
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(from_name, ''), COALESCE(from_email, ''), COALESCE(reply_to, ''),
		       COALESCE(smtp_host, ''), COALESCE(smtp_port, 0), COALESCE(smtp_username, ''),
		       COALESCE(smtp_password, ''), smtp_encryption, updated_at
		FROM email_settings WHERE id = 1`,
	).Scan(&s.FromName, &s.FromEmail, &s.ReplyTo, &s.SMTPHost, &s.SMTPPort, &s.SMTPUsername,
		&s.SMTPPassword, &s.SMTPEncryption, &s.UpdatedAt)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// SaveEmailSettings upserts the single settings row
func (r *PostgresEmailRepository) SaveEmailSettings(ctx context.Context, s *domain.EmailSettings) error {
	s.UpdatedAt = time.Now()
	if s.SMTPEncryption == "" {
		s.SMTPEncryption = domain.EncryptionTLS
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO email_settings (id, from_name, from_email, reply_to, smtp_host, smtp_port,
		                            smtp_username, smtp_password, smtp_encryption, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			from_name = EXCLUDED.from_name, from_email = EXCLUDED.from_email, reply_to = EXCLUDED.reply_to,
			smtp_host = EXCLUDED.smtp_host, smtp_port = EXCLUDED.smtp_port, smtp_username = EXCLUDED.smtp_username,
			smtp_password = EXCLUDED.smtp_password, smtp_encryption = EXCLUDED.smtp_encryption,
			updated_at = EXCLUDED.updated_at`,
		nullStringOrValue(s.FromName), nullStringOrValue(s.FromEmail), nullStringOrValue(s.ReplyTo),
		nullStringOrValue(s.SMTPHost), s.SMTPPort, nullStringOrValue(s.SMTPUsername),
		nullStringOrValue(s.SMTPPassword), s.SMTPEncryption, s.UpdatedAt,
	)
	return err
}
