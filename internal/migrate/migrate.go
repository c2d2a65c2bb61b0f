// Package migrate applies the embedded schema migrations in filename order.
package migrate

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/example/tee-scheduler/internal/db"
)

//go:embed *.sql
var migrations embed.FS

// Up brings the schema up to date. Each migration commits together with its
// schema_migrations record, so a failed multi-statement migration leaves no
// partial DDL behind.
func Up(ctx context.Context, d *db.DB) error {
	files, err := listMigrations()
	if err != nil {
		return err
	}

	if err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, name := range files {
		applied, err := apply(ctx, d, name)
		if err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if applied {
			log.Info().Str("migration", name).Msg("migrate: applied")
		}
	}
	return nil
}

// apply runs one migration inside a transaction: the already-applied check,
// the migration statements and the version insert all commit or roll back
// together. Returns whether the migration was applied by this call.
func apply(ctx context.Context, d *db.DB, name string) (bool, error) {
	stmts, err := migrations.ReadFile(name)
	if err != nil {
		return false, err
	}

	applied := false
	err = d.InTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, name).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := tx.Exec(ctx, string(stmts)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, name); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func listMigrations() ([]string, error) {
	entries, err := migrations.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}
