// Package testutil provides an in-memory SQLite database component and
// fixture helpers for tests that need a real gorm connection.
//
//	db := testutil.NewComponent(t.Name()).WithMigrations(store.Migrations, "migrations/sqlite")
//	idtestutil.T(t).Setup(db)
//
//	testutil.SeedRows(t, db.DB().GormDB, "user_identity", testutil.Row{"uid": "id1", "username": "alice"})
//	testutil.ExpectRows(t, db.DB().GormDB, "user_identity", 1)
package testutil
