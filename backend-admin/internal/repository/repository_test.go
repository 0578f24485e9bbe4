package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
	"github.com/imobsites/imobsites-panel/migrations"
	"github.com/imobsites/imobsites-panel/pkg/database"
	"github.com/imobsites/imobsites-panel/pkg/migrate"
)

func TestWhereBuilder_TenantScope(t *testing.T) {
	w := &whereBuilder{}
	w.add("tenant_id = ?", "t1")
	w.add("LOWER(city) = LOWER(?)", "Curitiba")
	w.addSearch("casa", "code", "title")

	assert.Equal(t, "WHERE tenant_id = $1 AND LOWER(city) = LOWER($2) AND (code ILIKE $3 OR title ILIKE $3)", w.sql())
	assert.Equal(t, "$4", w.next(20))
}

// Run with: INTEGRATION_TEST=true TEST_POSTGRES_HOST=<host> go test ./backend-admin/internal/repository/... -run Integration
func setupIntegration(t *testing.T) *database.PostgresDB {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	cfg := database.DefaultPostgresConfig()
	if host := os.Getenv("TEST_POSTGRES_HOST"); host != "" {
		cfg.Host = host
	}
	if dbname := os.Getenv("TEST_POSTGRES_DATABASE"); dbname != "" {
		cfg.Database = dbname
	}
	ctx := context.Background()

	sqlDB, err := sql.Open("postgres", cfg.DSN())
	require.NoError(t, err)
	defer sqlDB.Close()
	_, err = migrate.NewRunner(sqlDB, migrations.FS).Apply(ctx)
	require.NoError(t, err)

	db, err := database.NewPostgres(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func seedTenant(t *testing.T, db *database.PostgresDB) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, db.Exec(context.Background(),
		`INSERT INTO tenants (id, name, slug) VALUES ($1, $2, $3)`, id, "Imob "+id[:8], "it-"+id[:8]))
	return id
}

func newProperty(tenantID, code, city, neighborhood string) *domain.Property {
	now := time.Now()
	return &domain.Property{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Code:         code,
		Title:        "Casa " + code,
		Purpose:      domain.PurposeSale,
		PropertyType: "house",
		Status:       domain.PropertyStatusActive,
		Price:        decimal.RequireFromString("450000.00"),
		Neighborhood: neighborhood,
		City:         city,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIntegration_PropertyCodeUniquePerTenant(t *testing.T) {
	db := setupIntegration(t)
	ctx := context.Background()
	repo := NewPostgresPropertyRepository(db.Pool())
	t1, t2 := seedTenant(t, db), seedTenant(t, db)

	require.NoError(t, repo.Create(ctx, newProperty(t1, "C-1", "Curitiba", "Batel")))
	assert.ErrorIs(t, repo.Create(ctx, newProperty(t1, "C-1", "Curitiba", "Centro")), ErrDuplicateCode)
	assert.NoError(t, repo.Create(ctx, newProperty(t2, "C-1", "Curitiba", "Centro")))

	got, err := repo.Neighborhoods(ctx, t1, "curitiba")
	require.NoError(t, err)
	assert.Equal(t, []string{"Batel"}, got)

	props, total, err := repo.List(ctx, domain.PropertyFilter{TenantID: t2, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, t2, props[0].TenantID)
}

func TestIntegration_ImageCover(t *testing.T) {
	db := setupIntegration(t)
	ctx := context.Background()
	props := NewPostgresPropertyRepository(db.Pool())
	images := NewPostgresImageRepository(db.Pool())
	tenant := seedTenant(t, db)
	p := newProperty(tenant, "IMG-1", "Curitiba", "Batel")
	require.NoError(t, props.Create(ctx, p))

	add := func(name string) *domain.PropertyImage {
		img := &domain.PropertyImage{
			ID: uuid.NewString(), TenantID: tenant, PropertyID: p.ID, Filename: name,
			Path: "uploads/" + name, URL: "/uploads/" + name, ContentType: "image/jpeg",
			SizeBytes: 10, CreatedAt: time.Now(),
		}
		require.NoError(t, images.Create(ctx, img))
		return img
	}
	first, second := add("a.jpg"), add("b.jpg")
	assert.True(t, first.IsCover)
	assert.False(t, second.IsCover)
	assert.Equal(t, 1, second.SortOrder)

	require.NoError(t, images.SetCover(ctx, tenant, p.ID, second.ID))
	require.NoError(t, images.Delete(ctx, tenant, second.ID))

	list, err := images.ListByProperty(ctx, tenant, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsCover, "remaining image inherits the cover")
}

func TestIntegration_ActivationSingleUse(t *testing.T) {
	db := setupIntegration(t)
	ctx := context.Background()
	users := NewPostgresUserRepository(db.Pool())
	tenant := seedTenant(t, db)
	token := uuid.NewString()
	require.NoError(t, db.Exec(ctx, `
		INSERT INTO usuarios (tenant_id, nome, email, activation_token, activation_expires_at)
		VALUES ($1, 'Ana', $2, $3, $4)`, tenant, token+"@example.com", token, time.Now().Add(time.Hour)))

	ok, err := users.Activate(ctx, token, "hash", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = users.Activate(ctx, token, "hash", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	u, err := users.GetByEmail(ctx, token+"@EXAMPLE.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.CanSignIn())
}
