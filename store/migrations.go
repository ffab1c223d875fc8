package store

import (
	"embed"
	"fmt"

	"github.com/kbukum/idmigrate/database"
	"github.com/kbukum/idmigrate/database/migration"
)

// Migrations holds the destination schema, one directory per driver.
//
//go:embed migrations
var Migrations embed.FS

// MigrationsPath returns the directory inside Migrations for a driver.
func MigrationsPath(driver string) string {
	return "migrations/" + driver
}

// NewSchemaMigrator returns a migrator for the destination schema of db.
func NewSchemaMigrator(db *database.DB) (*migration.Migrator, error) {
	switch db.Driver() {
	case database.DriverSQLite, database.DriverMySQL:
	default:
		return nil, fmt.Errorf("no schema for driver %q", db.Driver())
	}
	return migration.New(db, Migrations, MigrationsPath(db.Driver()))
}
