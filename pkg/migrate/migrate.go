// Package migrate applies forward-only SQL migrations through lib/pq.
//
// Files named NNN_description.sql are applied in lexical order, one
// statement at a time. Statements that fail because the object already
// exists are treated as applied, so a partially applied file can be
// re-run safely.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/pkg/logger"
)

const (
	createTrackingTable = `CREATE TABLE IF NOT EXISTS schema_migrations (filename TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`
	selectApplied       = `SELECT filename FROM schema_migrations`
	insertApplied       = `INSERT INTO schema_migrations (filename) VALUES ($1)`
)

// SQLSTATE codes that mean "this object is already there"
var alreadyExistsCodes = map[pq.ErrorCode]bool{
	"42P07": true, // duplicate_table
	"42701": true, // duplicate_column
	"42710": true, // duplicate_object
	"42P06": true, // duplicate_schema
	"42723": true, // duplicate_function
}

// Result summarizes a run
type Result struct {
	Applied []string
	Skipped []string
	// Tolerated counts statements that failed with an already-exists error
	Tolerated int
}

// Runner applies migrations from a filesystem
type Runner struct {
	db    *sql.DB
	files fs.FS
}

// NewRunner creates a runner reading *.sql from files
func NewRunner(db *sql.DB, files fs.FS) *Runner {
	return &Runner{db: db, files: files}
}

// Apply runs every migration not yet recorded in schema_migrations
func (r *Runner) Apply(ctx context.Context) (*Result, error) {
	if _, err := r.db.ExecContext(ctx, createTrackingTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := r.appliedSet(ctx)
	if err != nil {
		return nil, err
	}

	names, err := fs.Glob(r.files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	res := &Result{}
	for _, name := range names {
		if applied[name] {
			res.Skipped = append(res.Skipped, name)
			continue
		}

		content, err := fs.ReadFile(r.files, name)
		if err != nil {
			return res, fmt.Errorf("failed to read %s: %w", name, err)
		}

		for i, stmt := range SplitStatements(string(content)) {
			if _, err := r.db.ExecContext(ctx, stmt); err != nil {
				if IsAlreadyExists(err) {
					res.Tolerated++
					logger.Warn("migration statement already applied",
						zap.String("file", name),
						zap.Int("statement", i+1),
						zap.Error(err),
					)
					continue
				}
				return res, fmt.Errorf("%s statement %d: %w", name, i+1, err)
			}
		}

		if _, err := r.db.ExecContext(ctx, insertApplied, path.Base(name)); err != nil {
			return res, fmt.Errorf("failed to record %s: %w", name, err)
		}
		res.Applied = append(res.Applied, name)
		logger.Info("migration applied", zap.String("file", name))
	}

	return res, nil
}

func (r *Runner) appliedSet(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, selectApplied)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		set[name] = true
	}
	return set, rows.Err()
}

// IsAlreadyExists reports whether err is a Postgres duplicate-object error
func IsAlreadyExists(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return alreadyExistsCodes[pqErr.Code]
	}
	return false
}

// SplitStatements splits a SQL script on top-level semicolons. Quoted
// strings, dollar-quoted bodies and -- comments are respected.
func SplitStatements(script string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
		dollar  string
	)

	flush := func() {
		stmt := strings.TrimSpace(cur.String())
		cur.Reset()
		if stmt != "" && !onlyComments(stmt) {
			out = append(out, stmt)
		}
	}

	for i := 0; i < len(script); i++ {
		c := script[i]

		switch {
		case dollar != "":
			if strings.HasPrefix(script[i:], dollar) {
				cur.WriteString(dollar)
				i += len(dollar) - 1
				dollar = ""
				continue
			}
		case inQuote:
			if c == '\'' {
				inQuote = false
			}
		case c == '\'':
			inQuote = true
		case c == '-' && i+1 < len(script) && script[i+1] == '-':
			end := strings.IndexByte(script[i:], '\n')
			if end < 0 {
				end = len(script) - i
			}
			cur.WriteString(script[i : i+end])
			i += end - 1
			continue
		case c == '$':
			if end := strings.IndexByte(script[i+1:], '$'); end >= 0 {
				tag := script[i : i+end+2]
				if isDollarTag(tag) {
					dollar = tag
					cur.WriteString(tag)
					i += len(tag) - 1
					continue
				}
			}
		case c == ';':
			flush()
			continue
		}

		cur.WriteByte(c)
	}
	flush()

	return out
}

func isDollarTag(tag string) bool {
	for _, r := range tag[1 : len(tag)-1] {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func onlyComments(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
