package database

import (
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/mysql/*.sql migrations/sqlite3/*.sql
var embedMigrations embed.FS

// Migrator applies the embedded schema migrations for one SQL dialect.
// Migrations run out-of-band (cmd/migrate) or once at startup when enabled;
// request handling never touches the schema.
type Migrator struct {
	db      *sql.DB
	dialect string
}

// NewMigrator returns a Migrator for dialect "mysql" or "sqlite3".
func NewMigrator(db *sql.DB, dialect string) (*Migrator, error) {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return &Migrator{db: db, dialect: dialect}, nil
}

func (m *Migrator) dir() string { return path.Join("migrations", m.dialect) }

func (m *Migrator) Up() error {
	if err := goose.Up(m.db, m.dir()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Down() error {
	if err := goose.Down(m.db, m.dir()); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

func (m *Migrator) Status() error {
	if err := goose.Status(m.db, m.dir()); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

func (m *Migrator) Version() (int64, error) {
	version, err := goose.GetDBVersion(m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get database version: %w", err)
	}
	return version, nil
}

func (m *Migrator) Reset() error {
	if err := goose.Reset(m.db, m.dir()); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	return nil
}
