package database

import (
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cwbridge/platform/logger"
)

//go:embed migrations
var migrationsFS embed.FS

// Migration is one versioned schema change.
type Migration struct {
	Name    string
	SQL     string
	Version int
}

// Migrator applies pending schema migrations on startup.
type Migrator struct {
	db     *Database
	logger *logger.Logger
}

func NewMigrator(db *Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: log.WithModule("migrator"),
	}
}

// RunMigrations applies every migration that has not been recorded yet.
func (m *Migrator) RunMigrations() error {
	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := m.loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	pending := 0
	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if err := m.execute(migration); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
		pending++
	}

	if pending > 0 {
		m.logger.InfoWithFields("Database migrations completed", map[string]interface{}{
			"migrations_applied": pending,
			"total_migrations":   len(migrations),
		})
	} else {
		m.logger.Info("Database is up to date, no migrations needed")
	}
	return nil
}

func (m *Migrator) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS "cwMigrations" (
			"version" INTEGER PRIMARY KEY,
			"name" VARCHAR(255) NOT NULL,
			"appliedAt" TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
	`
	_, err := m.db.Exec(query)
	return err
}

// loadMigrations reads the embedded migration files, named
// NNN_description.sql, sorted by version.
func (m *Migrator) loadMigrations() ([]Migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration file %q has no version prefix", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration file %q has an invalid version: %w", name, err)
		}
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, Migration{
			Name:    strings.TrimSuffix(name, ".sql"),
			SQL:     string(content),
			Version: version,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func (m *Migrator) appliedVersions() (map[int]bool, error) {
	rows, err := m.db.Query(`SELECT "version" FROM "cwMigrations"`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) execute(migration Migration) error {
	m.logger.InfoWithFields("Applying migration", map[string]interface{}{
		"version": migration.Version,
		"name":    migration.Name,
	})

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(migration.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT INTO "cwMigrations" ("version", "name") VALUES ($1, $2)`,
		migration.Version, migration.Name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
