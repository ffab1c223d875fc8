// Package database provides the destination database connection: a gorm
// wrapper with driver selection, connection retry, pool tuning and health
// checks, plus translation of driver errors into AppErrors.
//
// The driver is chosen by Config.Driver ("sqlite" or "mysql"). Error
// translation is always on, so duplicate-key violations surface as
// gorm.ErrDuplicatedKey regardless of the driver:
//
//	db, err := database.Open(ctx, database.Config{Driver: "mysql", DSN: dsn}, log)
//	if err != nil { ... }
//	defer db.Close()
//
// Subpackages:
//
//   - migration: versioned SQL migrations using golang-migrate
//   - testutil: in-memory SQLite component for tests
package database
