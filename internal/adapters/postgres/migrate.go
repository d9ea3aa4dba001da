package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one embedded SQL file and when it was applied.
type Migration struct {
	Name      string
	AppliedAt *time.Time
}

// Migrator applies the embedded schema files in name order, once each.
type Migrator struct {
	db *DB
}

func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name        TEXT PRIMARY KEY,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// Status lists every embedded migration with its applied time, if any.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}
	names, err := migrationNames()
	if err != nil {
		return nil, err
	}

	applied := make(map[string]time.Time)
	rows, err := m.db.Pool.Query(ctx, `SELECT name, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var at time.Time
		if err := rows.Scan(&name, &at); err != nil {
			return nil, err
		}
		applied[name] = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(names))
	for _, n := range names {
		mig := Migration{Name: n}
		if at, ok := applied[n]; ok {
			at := at
			mig.AppliedAt = &at
		}
		out = append(out, mig)
	}
	return out, nil
}

// Up applies pending migrations, each in its own transaction, and returns
// the names it applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	var done []string
	for _, mig := range status {
		if mig.AppliedAt != nil {
			continue
		}
		sql, err := migrationFS.ReadFile("migrations/" + mig.Name)
		if err != nil {
			return done, fmt.Errorf("read %s: %w", mig.Name, err)
		}
		err = NewTxManager(m.db).WithinTx(ctx, func(ctx context.Context) error {
			tx := txFrom(ctx)
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, mig.Name)
			return err
		})
		if err != nil {
			return done, fmt.Errorf("apply %s: %w", mig.Name, err)
		}
		done = append(done, mig.Name)
	}
	return done, nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
