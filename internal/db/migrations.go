/*-------------------------------------------------------------------------
 *
 * migrations.go
 *    SQL migration runner
 *
 * Applies .sql files from the migrations directory in lexical order,
 * tracking applied versions in launchbase.schema_migrations. Each
 * migration runs in its own transaction.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/db/migrations.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/launchbase/actionrequests/internal/metrics"
)

/* MigrationRunner applies schema migrations at startup */
type MigrationRunner struct {
	db  *sqlx.DB
	dir string
}

/* NewMigrationRunner creates a migration runner over a directory of
 * .sql files */
func NewMigrationRunner(db *sqlx.DB, dir string) (*MigrationRunner, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("migrations directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations path %s is not a directory", dir)
	}
	return &MigrationRunner{db: db, dir: dir}, nil
}

/* Run applies all pending migrations in lexical order */
func (m *MigrationRunner) Run(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS launchbase`); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS launchbase.schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		applied, err := m.isApplied(ctx, file)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := m.apply(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

func (m *MigrationRunner) isApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM launchbase.schema_migrations WHERE version = $1)`, version)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", version, err)
	}
	return exists, nil
}

func (m *MigrationRunner) apply(ctx context.Context, version string) error {
	sqlBytes, err := os.ReadFile(filepath.Join(m.dir, version))
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", version, err)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("migration %s failed: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO launchbase.schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", version, err)
	}

	metrics.InfoWithContext(ctx, "Migration applied", map[string]interface{}{
		"version": version,
	})
	return nil
}
