package testutil

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/kbukum/idmigrate/component"
	"github.com/kbukum/idmigrate/testutil"
)

type account struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func TestComponent_WithModels(t *testing.T) {
	tc := NewComponent(t.Name()).WithModels(&account{})
	testutil.T(t).Setup(tc)

	db := tc.DB().GormDB
	if !TableExists(db, "accounts") {
		t.Fatal("expected accounts table to exist")
	}

	SeedRows(t, db, "accounts",
		Row{"id": "a1", "name": "Alice"},
		Row{"id": "b2", "name": "Bob"},
	)
	ExpectRows(t, db, "accounts", 2)

	testutil.T(t).Reset(tc)
	ExpectRows(t, db, "accounts", 0)
}

func TestComponent_WithMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000001_notes.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY);")},
		"m/000001_notes.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE notes;")},
	}
	tc := NewComponent(t.Name()).WithMigrations(fsys, "m")
	testutil.T(t).Setup(tc)

	db := tc.DB().GormDB
	if !TableExists(db, "notes") {
		t.Fatal("expected notes table to exist")
	}

	SeedRows(t, db, "notes", Row{"id": "n1"})
	testutil.T(t).Reset(tc)

	ExpectRows(t, db, "notes", 0)
	// the migration bookkeeping survives Reset
	ExpectRows(t, db, "schema_migrations", 1)
}

func TestComponent_Health(t *testing.T) {
	tc := NewComponent(t.Name())
	ctx := context.Background()

	if h := tc.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := tc.Reset(ctx); err == nil {
		t.Error("expected Reset to fail before start")
	}

	testutil.T(t).Setup(tc)

	if h := tc.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s: %s", h.Status, h.Message)
	}
	if err := tc.Start(ctx); err == nil {
		t.Error("expected second Start to fail")
	}
}

func TestSeedRows_ResetKeepsSchema(t *testing.T) {
	tc := NewComponent(t.Name())
	testutil.T(t).Setup(tc)
	db := tc.DB().GormDB

	db.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY)")
	db.Exec("CREATE TABLE posts (id INTEGER PRIMARY KEY)")
	SeedRows(t, db, "users", Row{"id": 1}, Row{"id": 2})
	SeedRows(t, db, "posts", Row{"id": 1})

	testutil.T(t).Reset(tc)

	for _, table := range []string{"users", "posts"} {
		if !TableExists(db, table) {
			t.Errorf("expected %s to survive Reset", table)
		}
		ExpectRows(t, db, table, 0)
	}
}
