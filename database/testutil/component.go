package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/kbukum/idmigrate/component"
	"github.com/kbukum/idmigrate/database"
	"github.com/kbukum/idmigrate/database/migration"
	"github.com/kbukum/idmigrate/logger"
	"github.com/kbukum/idmigrate/testutil"
)

// Component is a test database component backed by a shared-cache in-memory
// SQLite database. The pool is limited to one connection so concurrent
// writers queue instead of failing with "database table is locked".
type Component struct {
	name    string
	db      *database.DB
	models  []interface{}
	fsys    fs.FS
	path    string
	started bool
	mu      sync.RWMutex
}

var _ component.Component = (*Component)(nil)
var _ testutil.TestComponent = (*Component)(nil)

// NewComponent creates a test database component. name must be unique per
// live database; passing t.Name() is the usual choice.
func NewComponent(name string) *Component {
	return &Component{name: strings.NewReplacer("/", "_", " ", "_").Replace(name)}
}

// WithModels registers models for gorm auto-migration on Start.
func (c *Component) WithModels(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithMigrations applies the SQL migrations under path in fsys on Start.
func (c *Component) WithMigrations(fsys fs.FS, path string) *Component {
	c.fsys = fsys
	c.path = path
	return c
}

// Config returns the connection config used by Start.
func (c *Component) Config() database.Config {
	cfg := database.Config{
		Driver:       database.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", c.name),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		MaxRetries:   1,
		LogLevel:     "silent",
	}
	cfg.ApplyDefaults()
	// keep the only connection alive, or the in-memory database is dropped
	cfg.ConnMaxLifetime = "24h"
	cfg.ConnMaxIdleTime = "24h"
	return cfg
}

// DB returns the underlying *database.DB, or nil if not started.
func (c *Component) DB() *database.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string {
	return "database-test"
}

// Start opens the in-memory database and applies models and migrations.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("component already started")
	}

	db, err := database.Open(ctx, c.Config(), logger.Nop())
	if err != nil {
		return fmt.Errorf("failed to open test database: %w", err)
	}

	if c.fsys != nil {
		m, err := migration.New(db, c.fsys, c.path)
		if err != nil {
			_ = db.Close()
			return err
		}
		if err := m.Up(); err != nil {
			_ = db.Close()
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	if len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return fmt.Errorf("auto-migrate failed: %w", err)
		}
	}

	c.db = db
	c.started = true
	return nil
}

// Stop closes the database; the in-memory data is discarded.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.db == nil {
		return nil
	}
	c.started = false
	return c.db.Close()
}

// Health returns the health status of the test database.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started || c.db == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database not started",
		}
	}

	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset clears all rows from all tables while preserving the schema.
func (c *Component) Reset(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started || c.db == nil {
		return fmt.Errorf("component not started")
	}

	db := c.db.WithContext(ctx)
	tables, err := db.Migrator().GetTables()
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	for _, table := range tables {
		if table == "schema_migrations" {
			continue
		}
		if err := db.Exec(fmt.Sprintf("DELETE FROM %q", table)).Error; err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}
