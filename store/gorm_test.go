package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	dbtestutil "github.com/kbukum/idmigrate/database/testutil"
	apperrors "github.com/kbukum/idmigrate/errors"
	"github.com/kbukum/idmigrate/identity"
	"github.com/kbukum/idmigrate/logger"
	"github.com/kbukum/idmigrate/testutil"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db := dbtestutil.NewComponent(t.Name()).WithMigrations(Migrations, MigrationsPath("sqlite"))
	testutil.T(t).Setup(db)
	return NewGormStore(db.DB(), logger.Nop())
}

func record(key, login string) identity.DestinationRecord {
	return identity.DestinationRecord{
		IdentityKey:  key,
		LoginName:    login,
		FirstName:    "First " + key,
		LastName:     "Last " + key,
		Email:        login + "@example.com",
		PasswordHash: "$2a$04$abcdefghijklmnopqrstuuabcdefghijklmnopqrstuvwxyzABCDE",
	}
}

func TestGormStore_UpsertAndExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "id1")
	if err != nil {
		t.Fatalf("Exists() failed: %v", err)
	}
	if exists {
		t.Error("expected id1 to be absent")
	}

	if err := s.Upsert(ctx, record("id1", "alice")); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	exists, err = s.Exists(ctx, "id1")
	if err != nil {
		t.Fatalf("Exists() failed: %v", err)
	}
	if !exists {
		t.Error("expected id1 to exist")
	}
}

func TestGormStore_ListAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, r := range []identity.DestinationRecord{record("id2", "bob"), record("id1", "alice")} {
		if err := s.Upsert(ctx, r); err != nil {
			t.Fatalf("Upsert(%s) failed: %v", r.IdentityKey, err)
		}
	}

	got, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].IdentityKey != "id1" || got[1].IdentityKey != "id2" {
		t.Errorf("expected records ordered by key, got %s, %s", got[0].IdentityKey, got[1].IdentityKey)
	}
	if got[0] != record("id1", "alice") {
		t.Errorf("expected round-trip of all fields, got %+v", got[0])
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}
}

func TestGormStore_DuplicateKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, record("id1", "alice")); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	err := s.Upsert(ctx, record("id1", "alice"))
	if err == nil {
		t.Fatal("expected duplicate error, got nil")
	}
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if apperrors.KindOf(err) != apperrors.KindSkip {
		t.Errorf("expected skip kind, got %s", apperrors.KindOf(err))
	}
}

func TestGormStore_LoginNameConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, record("id1", "alice")); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	err := s.Upsert(ctx, record("id2", "alice"))
	if !apperrors.HasCode(err, apperrors.ErrCodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if apperrors.KindOf(err) != apperrors.KindFatal {
		t.Errorf("expected fatal kind, got %s", apperrors.KindOf(err))
	}
	if errors.Is(err, ErrDuplicateKey) {
		t.Error("a login name conflict must not look like a duplicate key")
	}
}

func TestGormStore_ConcurrentDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const writers = 8
	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Upsert(ctx, record("id1", "alice"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrDuplicateKey):
				dup.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 {
		t.Errorf("expected exactly one successful insert, got %d", ok.Load())
	}
	if dup.Load() != writers-1 {
		t.Errorf("expected %d duplicates, got %d", writers-1, dup.Load())
	}
}

func TestGormStore_MissingSchema(t *testing.T) {
	db := dbtestutil.NewComponent(t.Name())
	testutil.T(t).Setup(db)
	s := NewGormStore(db.DB(), logger.Nop())

	_, err := s.Exists(context.Background(), "id1")
	if err == nil {
		t.Fatal("expected error without schema")
	}
	if apperrors.KindOf(err) != apperrors.KindFatal {
		t.Errorf("expected fatal kind, got %s", apperrors.KindOf(err))
	}
}

func TestMigrationsPath(t *testing.T) {
	for _, driver := range []string{"sqlite", "mysql"} {
		entries, err := Migrations.ReadDir(MigrationsPath(driver))
		if err != nil {
			t.Fatalf("ReadDir(%s) failed: %v", driver, err)
		}
		if len(entries) != 2 {
			t.Errorf("expected up and down migration for %s, got %d files", driver, len(entries))
		}
	}
}

func TestNewSchemaMigrator(t *testing.T) {
	db := dbtestutil.NewComponent(t.Name())
	testutil.T(t).Setup(db)

	m, err := NewSchemaMigrator(db.DB())
	if err != nil {
		t.Fatalf("NewSchemaMigrator() failed: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("Up() failed: %v", err)
	}
	if !db.DB().GormDB.Migrator().HasTable(&UserIdentity{}) {
		t.Error("expected user_identity table after Up")
	}
	if err := m.Down(); err != nil {
		t.Fatalf("Down() failed: %v", err)
	}
	if db.DB().GormDB.Migrator().HasTable(&UserIdentity{}) {
		t.Error("expected user_identity table to be dropped after Down")
	}
}

func TestGormStore_ReadsSeededRows(t *testing.T) {
	db := dbtestutil.NewComponent(t.Name()).WithMigrations(Migrations, MigrationsPath("sqlite"))
	testutil.T(t).Setup(db)
	gdb := db.DB().GormDB

	dbtestutil.SeedRows(t, gdb, "user_identity",
		dbtestutil.Row{"uid": "id1", "username": "alice", "password_hash": "$2a$04$abc"},
		dbtestutil.Row{"uid": "id2", "username": "bob"},
	)
	s := NewGormStore(db.DB(), logger.Nop())
	ctx := context.Background()

	ok, err := s.Exists(ctx, "id1")
	if err != nil || !ok {
		t.Fatalf("expected id1 to exist, got %v, %v", ok, err)
	}
	if err := s.Upsert(ctx, record("id3", "carol")); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	dbtestutil.ExpectRows(t, gdb, "user_identity", 3)

	if err := s.Upsert(ctx, record("id4", "alice")); !apperrors.HasCode(err, apperrors.ErrCodeConflict) {
		t.Errorf("expected CONFLICT for a taken username, got %v", err)
	}
}
