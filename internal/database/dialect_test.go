package database

import (
	"strings"
	"testing"
	"time"
)

func TestNewDialect(t *testing.T) {
	if _, ok := NewDialect(DialectSQLite).(*SQLiteDialect); !ok {
		t.Error("expected *SQLiteDialect for sqlite")
	}
	if _, ok := NewDialect(DialectPostgres).(*PostgresDialect); !ok {
		t.Error("expected *PostgresDialect for postgres")
	}
	// Unknown dialect should default to SQLite
	if _, ok := NewDialect("unknown").(*SQLiteDialect); !ok {
		t.Error("expected default *SQLiteDialect")
	}
}

func TestSQLiteDialect(t *testing.T) {
	d := &SQLiteDialect{}

	if d.DriverName() != "sqlite" {
		t.Errorf("DriverName() = %q", d.DriverName())
	}
	for _, pos := range []int{1, 2, 100} {
		if got := d.Placeholder(pos); got != "?" {
			t.Errorf("Placeholder(%d) = %q, want ?", pos, got)
		}
	}
	if !d.SupportsLastInsertID() || d.ReturningClause("id") != "" {
		t.Error("SQLite should use LastInsertId without RETURNING")
	}
	if !strings.Contains(d.SerialPrimaryKey(), "AUTOINCREMENT") {
		t.Errorf("SerialPrimaryKey() = %q", d.SerialPrimaryKey())
	}
	if d.TimestampType() != "TIMESTAMP" {
		t.Errorf("TimestampType() = %q", d.TimestampType())
	}
}

func TestPostgresDialect(t *testing.T) {
	d := &PostgresDialect{}

	if d.DriverName() != "postgres" {
		t.Errorf("DriverName() = %q", d.DriverName())
	}
	tests := []struct {
		position int
		want     string
	}{
		{1, "$1"},
		{2, "$2"},
		{10, "$10"},
	}
	for _, tt := range tests {
		if got := d.Placeholder(tt.position); got != tt.want {
			t.Errorf("Placeholder(%d) = %q, want %q", tt.position, got, tt.want)
		}
	}
	if d.SupportsLastInsertID() {
		t.Error("SupportsLastInsertID() = true, want false")
	}
	if got := d.ReturningClause("id"); got != " RETURNING id" {
		t.Errorf("ReturningClause() = %q", got)
	}
	if d.SerialPrimaryKey() != "BIGSERIAL PRIMARY KEY" || d.TimestampType() != "TIMESTAMPTZ" {
		t.Errorf("schema types = %q, %q", d.SerialPrimaryKey(), d.TimestampType())
	}
}

func TestQueryBuilder_Build(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{
			name:    "sqlite unchanged",
			dialect: &SQLiteDialect{},
			query:   "SELECT * FROM runs WHERE id = ? AND status = ?",
			want:    "SELECT * FROM runs WHERE id = ? AND status = ?",
		},
		{
			name:    "postgres numbered",
			dialect: &PostgresDialect{},
			query:   "SELECT * FROM runs WHERE id = ? AND status = ?",
			want:    "SELECT * FROM runs WHERE id = $1 AND status = $2",
		},
		{
			name:    "empty",
			dialect: &PostgresDialect{},
			query:   "",
			want:    "",
		},
		{
			name:    "no placeholders",
			dialect: &PostgresDialect{},
			query:   "SELECT COUNT(*) FROM runs",
			want:    "SELECT COUNT(*) FROM runs",
		},
		{
			name:    "question mark in literal",
			dialect: &PostgresDialect{},
			query:   "SELECT * FROM runs WHERE tileset = 'what?' AND id = ?",
			want:    "SELECT * FROM runs WHERE tileset = 'what?' AND id = $1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewQueryBuilder(tt.dialect).Build(tt.query); got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryBuilder_ManyPlaceholders(t *testing.T) {
	qb := NewQueryBuilder(&PostgresDialect{})
	got := qb.Build("INSERT INTO placements VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if !strings.Contains(got, "$11") || strings.Contains(got, "?") {
		t.Errorf("Build() = %q", got)
	}
}

func TestQueryBuilder_BuildWithReturning(t *testing.T) {
	query := "INSERT INTO runs (seed) VALUES (?)"

	if got := NewQueryBuilder(&SQLiteDialect{}).BuildWithReturning(query, "id"); got != query {
		t.Errorf("SQLite BuildWithReturning() = %q", got)
	}

	want := "INSERT INTO runs (seed) VALUES ($1) RETURNING id"
	if got := NewQueryBuilder(&PostgresDialect{}).BuildWithReturning(query, "id"); got != want {
		t.Errorf("Postgres BuildWithReturning() = %q, want %q", got, want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/tmp/test.db")
	if cfg.Driver != "sqlite" || cfg.SQLitePath != "/tmp/test.db" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()
	if cfg.Host != "localhost" || cfg.Port != 5432 || cfg.SSLMode != "disable" {
		t.Errorf("DefaultPostgresConfig() = %+v", cfg)
	}
	if cfg.MaxOpenConns != 25 || cfg.MaxIdleConns != 5 || cfg.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("pool settings = %+v", cfg)
	}
}

func TestConfig_DataSourceName(t *testing.T) {
	sqlite := DefaultConfig("data/citygen.db").dataSourceName()
	if !strings.HasPrefix(sqlite, "data/citygen.db?") || !strings.Contains(sqlite, "_pragma=foreign_keys(1)") {
		t.Errorf("sqlite DSN = %q", sqlite)
	}

	pg := Config{
		Driver: "postgres",
		Postgres: PostgresConfig{
			Host:     "db",
			Port:     5433,
			User:     "city",
			Password: "p@ss word",
			Database: "citygen",
		},
	}
	want := "postgres://city:p%40ss%20word@db:5433/citygen?sslmode=disable"
	if got := pg.dataSourceName(); got != want {
		t.Errorf("postgres DSN = %q, want %q", got, want)
	}
}
