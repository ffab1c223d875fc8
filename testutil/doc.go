// Package testutil provides test lifecycle helpers for idmigrate components.
//
// A TestComponent is a component.Component with a Reset method. The database
// and redis packages ship in-memory implementations (sqlite, miniredis) in
// their own testutil subpackages.
//
//	func TestMigrate(t *testing.T) {
//	    db := dbtestutil.NewComponent(t.Name()).WithMigrations(store.Migrations, "migrations/sqlite")
//	    testutil.T(t).Setup(db)
//	    // component is stopped when the test ends
//	}
package testutil
