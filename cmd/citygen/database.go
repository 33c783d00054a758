package main

import (
	"time"

	"github.com/lawnchairsociety/citygen/internal/config"
	"github.com/lawnchairsociety/citygen/internal/database"
)

// databaseConfig converts the file config into a database.Config,
// keeping pool defaults for anything left unset.
func databaseConfig(c config.DatabaseConfig) database.Config {
	dbCfg := database.DefaultConfig(c.SQLitePath)
	if c.Driver != "" {
		dbCfg.Driver = c.Driver
	}
	if dbCfg.Driver != string(database.DialectPostgres) {
		return dbCfg
	}

	pg := database.DefaultPostgresConfig()
	if c.Postgres.Host != "" {
		pg.Host = c.Postgres.Host
	}
	if c.Postgres.Port != 0 {
		pg.Port = c.Postgres.Port
	}
	pg.User = c.Postgres.User
	pg.Password = c.Postgres.Password
	pg.Database = c.Postgres.Database
	if c.Postgres.SSLMode != "" {
		pg.SSLMode = c.Postgres.SSLMode
	}
	if c.Postgres.MaxOpenConns > 0 {
		pg.MaxOpenConns = c.Postgres.MaxOpenConns
	}
	if c.Postgres.MaxIdleConns > 0 {
		pg.MaxIdleConns = c.Postgres.MaxIdleConns
	}
	if c.Postgres.ConnMaxLifetimeSeconds > 0 {
		pg.ConnMaxLifetime = time.Duration(c.Postgres.ConnMaxLifetimeSeconds) * time.Second
	}
	dbCfg.Postgres = pg
	return dbCfg
}

func openDatabase(c config.DatabaseConfig) (*database.Database, error) {
	return database.OpenWithConfig(databaseConfig(c))
}
