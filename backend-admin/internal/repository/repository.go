package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
)

var (
	// ErrNotFound is returned by writes that matched no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateCode is returned when a property code is reused within a tenant
	ErrDuplicateCode = errors.New("property code already exists")
)

// UserRepository reads tenant staff accounts
type UserRepository interface {
	// GetByEmail returns the user with its tenant state, nil when missing
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByActivationToken(ctx context.Context, token string) (*domain.User, error)
	// Activate consumes token, stores the password hash and enables the
	// account. It reports false when the token is unknown or expired at now.
	Activate(ctx context.Context, token, passwordHash string, now time.Time) (bool, error)
}

// PropertyRepository is tenant-scoped; every read and write takes the tenant
type PropertyRepository interface {
	List(ctx context.Context, f domain.PropertyFilter) ([]*domain.Property, int, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Property, error)
	Create(ctx context.Context, p *domain.Property) error
	Update(ctx context.Context, p *domain.Property) error
	Delete(ctx context.Context, tenantID, id string) error
	// Neighborhoods lists distinct non-empty neighborhoods in a city
	Neighborhoods(ctx context.Context, tenantID, city string) ([]string, error)
}

// ImageRepository stores property image metadata
type ImageRepository interface {
	ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*domain.PropertyImage, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.PropertyImage, error)
	// Create appends the image; the first image of a property becomes cover
	Create(ctx context.Context, img *domain.PropertyImage) error
	SetCover(ctx context.Context, tenantID, propertyID, imageID string) error
	// Delete removes the image and promotes the next one when it was cover
	Delete(ctx context.Context, tenantID, id string) error
}

// ContactRepository stores leads
type ContactRepository interface {
	List(ctx context.Context, tenantID string, status domain.ContactStatus, page, perPage int) ([]*domain.Contact, int, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Contact, error)
	Create(ctx context.Context, c *domain.Contact) error
	UpdateStatus(ctx context.Context, tenantID, id string, status domain.ContactStatus) error
	Delete(ctx context.Context, tenantID, id string) error
}

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

func nullStringOrValue(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// whereBuilder accumulates AND conditions with positional arguments
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, args ...interface{}) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) addSearch(term string, cols ...string) {
	w.args = append(w.args, "%"+term+"%")
	n := len(w.args)
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, n)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

func (w *whereBuilder) next(v interface{}) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// notFound reports a missing row; a malformed uuid counts as missing
func notFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
