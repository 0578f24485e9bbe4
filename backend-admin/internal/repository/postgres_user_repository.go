package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
)

const userColumns = `
	u.id, u.tenant_id, u.nome, u.email, COALESCE(u.senha_hash, ''), u.nivel, u.ativo,
	u.activation_expires_at, t.status = 'active'`

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db DBTX
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM usuarios u JOIN tenants t ON t.id = u.tenant_id
		WHERE `+where, arg).Scan(
		&u.ID, &u.TenantID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.ActivationExpiresAt, &u.TenantActive,
	)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// GetByEmail matches the e-mail case-insensitively
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "LOWER(u.email) = LOWER($1)", email)
}

func (r *PostgresUserRepository) GetByActivationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getOne(ctx, "u.activation_token = $1", token)
}

// Activate is a single conditional UPDATE so a token can be used once
func (r *PostgresUserRepository) Activate(ctx context.Context, token, passwordHash string, now time.Time) (bool, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		UPDATE usuarios
		SET senha_hash = $2, ativo = TRUE, activation_token = NULL, activation_expires_at = NULL, updated_at = $3
		WHERE activation_token = $1 AND activation_expires_at > $3
		RETURNING id`, token, passwordHash, now).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
