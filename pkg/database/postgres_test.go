package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobsites/imobsites-panel/pkg/config"
)

func integrationDB(t *testing.T) *PostgresDB {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}
	cfg := DefaultPostgresConfig()
	for env, dst := range map[string]*string{
		"TEST_POSTGRES_HOST":     &cfg.Host,
		"TEST_POSTGRES_USER":     &cfg.User,
		"TEST_POSTGRES_PASSWORD": &cfg.Password,
		"TEST_POSTGRES_DATABASE": &cfg.Database,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	db, err := NewPostgres(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestFromConfig_KeepsPoolDefaults(t *testing.T) {
	cfg := FromConfig(config.DatabaseConfig{
		Host:         "db",
		Port:         6543,
		User:         "imob",
		Password:     "secret",
		DBName:       "panel",
		SSLMode:      "require",
		MaxOpenConns: 40,
	})

	assert.Equal(t, "host=db port=6543 user=imob password=secret dbname=panel sslmode=require", cfg.DSN())
	assert.Equal(t, int32(40), cfg.MaxConns)
	assert.Equal(t, int32(5), cfg.MinConns, "unset idle conns keep the default")
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
}

func TestDSN_QuotesAndSkipsEmpty(t *testing.T) {
	cfg := DefaultPostgresConfig()
	cfg.Password = `s3 cr'et\x`
	cfg.SSLMode = ""

	assert.Equal(t,
		`host=localhost port=5432 user=postgres password='s3 cr\'et\\x' dbname=imobsites`,
		cfg.DSN())
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert domain: %w", &pgconn.PgError{Code: "23505", ConstraintName: "tenant_domains_domain_key"})

	assert.True(t, IsUniqueViolation(dup, ""))
	assert.True(t, IsUniqueViolation(dup, "tenant_domains_domain_key"))
	assert.False(t, IsUniqueViolation(dup, "tenants_slug_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""), "foreign key violations are not duplicates")
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
}

func TestNewPostgres_UnreachableHost(t *testing.T) {
	cfg := DefaultPostgresConfig()
	cfg.Host = "invalid-host-that-does-not-exist"
	cfg.Port = 9999
	cfg.MaxRetries = 0
	cfg.ConnectTimeout = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewPostgres(ctx, cfg)
	assert.Error(t, err)
}

func TestPing_Integration(t *testing.T) {
	db := integrationDB(t)
	assert.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, db.Exec(context.Background(), "SELECT 1"))
}

func TestWithTx_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	conn, err := db.Pool().Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	_, err = conn.Exec(ctx, "CREATE TEMP TABLE tx_probe (id SERIAL PRIMARY KEY, value INT)")
	require.NoError(t, err)

	insert := func(v int) func(pgx.Tx) error {
		return func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "INSERT INTO tx_probe (value) VALUES ($1)", v)
			return err
		}
	}

	errAbort := errors.New("abort")
	err = WithTx(ctx, conn, func(tx pgx.Tx) error {
		require.NoError(t, insert(1)(tx))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	require.NoError(t, WithTx(ctx, conn, insert(2)))

	var values []int
	rows, err := conn.Query(ctx, "SELECT value FROM tx_probe")
	require.NoError(t, err)
	values, err = pgx.CollectRows(rows, pgx.RowTo[int])
	require.NoError(t, err)
	assert.Equal(t, []int{2}, values)
}
