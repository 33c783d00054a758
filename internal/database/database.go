// Package database stores generation runs and their placements in SQLite
// or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lawnchairsociety/citygen/internal/logger"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database wraps a connection pool and the dialect it speaks.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database described by cfg and runs migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	dialectType := DialectType(cfg.Driver)
	switch dialectType {
	case DialectSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	case DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dialect := NewDialect(dialectType)
	db, err := sql.Open(dialect.DriverName(), cfg.dataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialectType == DialectPostgres {
		p := cfg.Postgres
		if p.MaxOpenConns > 0 {
			db.SetMaxOpenConns(p.MaxOpenConns)
		}
		if p.MaxIdleConns > 0 {
			db.SetMaxIdleConns(p.MaxIdleConns)
		}
		if p.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(p.ConnMaxLifetime)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", dialectType, err)
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Database opened", "driver", dialectType)
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// migrate creates the schema if it doesn't exist.
func (d *Database) migrate() error {
	ts := d.dialect.TimestampType()
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id ` + d.dialect.SerialPrimaryKey() + `,
			seed BIGINT NOT NULL,
			dimensions INTEGER NOT NULL,
			tileset TEXT NOT NULL,
			policy TEXT NOT NULL,
			status TEXT NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			contradictions INTEGER NOT NULL DEFAULT 0,
			digest TEXT NOT NULL,
			layout TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS placements (
			run_id BIGINT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			step INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			tile TEXT NOT NULL,
			contradiction INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, step)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// insertID runs an INSERT and returns the new row's id on either dialect.
func (d *Database) insertID(tx *sql.Tx, query string, args ...any) (int64, error) {
	if d.dialect.SupportsLastInsertID() {
		result, err := tx.Exec(d.qb.Build(query), args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	var id int64
	err := tx.QueryRow(d.qb.BuildWithReturning(query, "id"), args...).Scan(&id)
	return id, err
}
