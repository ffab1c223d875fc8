package testutil

import (
	"testing"

	"gorm.io/gorm"
)

// Row is one fixture row keyed by column name.
type Row = map[string]interface{}

// SeedRows inserts rows into table and fails the test on the first error.
func SeedRows(t testing.TB, db *gorm.DB, table string, rows ...Row) {
	t.Helper()
	for i, row := range rows {
		if err := db.Table(table).Create(row).Error; err != nil {
			t.Fatalf("seed %s row %d: %v", table, i, err)
		}
	}
}

// TableExists reports whether table is present.
func TableExists(db *gorm.DB, table string) bool {
	return db.Migrator().HasTable(table)
}

// ExpectRows fails the test unless table holds exactly want rows.
func ExpectRows(t testing.TB, db *gorm.DB, table string, want int64) {
	t.Helper()
	var got int64
	if err := db.Table(table).Count(&got).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	if got != want {
		t.Errorf("expected %d rows in %s, got %d", want, table, got)
	}
}
