// Package migration applies versioned SQL schema migrations with golang-migrate.
//
// Migration files live in an fs.FS (usually an embed.FS) and follow the
// pattern VERSION_name.up.sql / VERSION_name.down.sql. The database driver is
// picked from the gorm connection's driver name, so one Migrator serves both
// sqlite and mysql destinations:
//
//	//go:embed migrations
//	var migrationsFS embed.FS
//
//	m, err := migration.New(db, migrationsFS, "migrations/"+db.Driver())
//	if err != nil { ... }
//	err = m.Up()
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/kbukum/idmigrate/database"
)

// DriverFunc creates a migrate database driver from sql.DB.
type DriverFunc func(*sql.DB) (migratedb.Driver, error)

// DriverFor returns the migrate driver constructor for a database driver name.
func DriverFor(driver string) (DriverFunc, error) {
	switch driver {
	case database.DriverSQLite, "":
		return func(db *sql.DB) (migratedb.Driver, error) {
			return migratesqlite.WithInstance(db, &migratesqlite.Config{})
		}, nil
	case database.DriverMySQL:
		return func(db *sql.DB) (migratedb.Driver, error) {
			return migratemysql.WithInstance(db, &migratemysql.Config{})
		}, nil
	default:
		return nil, fmt.Errorf("no migration driver for %q", driver)
	}
}

// Migrator runs schema migrations against one database.
type Migrator struct {
	gormDB     *gorm.DB
	fsys       fs.FS
	path       string
	driverFunc DriverFunc
}

// New creates a Migrator for db reading migrations from path inside fsys.
func New(db *database.DB, fsys fs.FS, path string) (*Migrator, error) {
	driverFunc, err := DriverFor(db.Driver())
	if err != nil {
		return nil, err
	}
	return NewWithDriver(db.GormDB, fsys, path, driverFunc), nil
}

// NewWithDriver creates a Migrator with an explicit driver constructor.
func NewWithDriver(gormDB *gorm.DB, fsys fs.FS, path string, driverFunc DriverFunc) *Migrator {
	return &Migrator{gormDB: gormDB, fsys: fsys, path: path, driverFunc: driverFunc}
}

// Up runs all pending migrations. migrate.ErrNoChange is suppressed.
func (m *Migrator) Up() error {
	mg, err := m.newMigrate()
	if err != nil {
		return err
	}
	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back all migrations. migrate.ErrNoChange is suppressed.
func (m *Migrator) Down() error {
	mg, err := m.newMigrate()
	if err != nil {
		return err
	}
	if err := mg.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Steps runs n migrations (positive = up, negative = down).
func (m *Migrator) Steps(n int) error {
	mg, err := m.newMigrate()
	if err != nil {
		return err
	}
	if err := mg.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate steps: %w", err)
	}
	return nil
}

// Version returns the current migration version and dirty flag.
// A database with no applied migrations reports version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	mg, err := m.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Reset drops everything and re-applies all migrations.
// This destroys all data in the database.
func (m *Migrator) Reset() error {
	mg, err := m.newMigrate()
	if err != nil {
		return err
	}
	if err := mg.Drop(); err != nil {
		return fmt.Errorf("migrate drop: %w", err)
	}

	// schema_migrations was dropped with everything else
	return m.Up()
}

// newMigrate creates a golang-migrate instance backed by the FS.
// Callers must NOT call Close on it: that would close the shared sql.DB.
func (m *Migrator) newMigrate() (*migrate.Migrate, error) {
	sqlDB, err := m.gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	driver, err := m.driverFunc(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("create database driver: %w", err)
	}

	source, err := iofs.New(m.fsys, m.path)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", source, "database", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return mg, nil
}
