// Command migrate applies the SQL schema in migrations/ to the configured
// database. Pass -dir to read the files from disk instead of the copy
// embedded in the binary.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/migrations"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/migrate"
)

func main() {
	dir := flag.String("dir", "", "read migrations from this directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := logger.Init(&logger.Config{Level: "info", ServiceName: "migrate", Development: cfg.IsDevelopment()}); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var files fs.FS = migrations.FS
	if *dir != "" {
		files = os.DirFS(*dir)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}

	res, err := migrate.NewRunner(db, files).Apply(ctx)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	logger.Info("migrations complete",
		zap.Int("applied", len(res.Applied)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("tolerated", res.Tolerated),
	)
}
