package database

import (
	"errors"
	"path/filepath"
	"testing"
)

// getDualTestDatabases returns both SQLite and PostgreSQL databases for testing.
// If PostgreSQL is not available, it returns only SQLite.
func getDualTestDatabases(t *testing.T) map[string]*Database {
	dbs := make(map[string]*Database)

	// Always include SQLite
	sqliteDB, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open SQLite database: %v", err)
	}
	dbs["sqlite"] = sqliteDB

	// Include PostgreSQL if available
	if pgConfig := getPostgresTestConfig(); pgConfig != nil {
		pgDB, err := OpenWithConfig(*pgConfig)
		if err != nil {
			t.Logf("PostgreSQL not available: %v", err)
		} else {
			clearTables(pgDB)
			dbs["postgres"] = pgDB
		}
	}

	t.Cleanup(func() {
		for name, db := range dbs {
			if name == "postgres" {
				clearTables(db)
			}
			db.Close()
		}
	})

	return dbs
}

// clearTables removes all rows in reverse dependency order.
func clearTables(db *Database) {
	for _, table := range []string{"topology_edges", "topologies"} {
		db.db.Exec("DELETE FROM " + table)
	}
}

// TestDual_SaveAndGetTopology tests the store round trip on both databases
func TestDual_SaveAndGetTopology(t *testing.T) {
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			r := generate(t, 9, true, 77)

			rec, err := db.SaveTopology(r)
			if err != nil {
				t.Fatalf("SaveTopology failed: %v", err)
			}

			got, err := db.GetTopology(rec.ID)
			if err != nil {
				t.Fatalf("GetTopology failed: %v", err)
			}
			if got.Result.Fingerprint() != r.Fingerprint() {
				t.Error("Loaded topology differs from the saved one")
			}
		})
	}
}

// TestDual_DuplicateFingerprint tests the unique fingerprint constraint on both databases
func TestDual_DuplicateFingerprint(t *testing.T) {
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			r := generate(t, 4, false, 5)

			if _, err := db.SaveTopology(r); err != nil {
				t.Fatalf("SaveTopology failed: %v", err)
			}
			if _, err := db.SaveTopology(r); !errors.Is(err, ErrDuplicateTopology) {
				t.Errorf("Expected ErrDuplicateTopology, got %v", err)
			}
		})
	}
}

// TestDual_ListAndCount tests listing on both databases
func TestDual_ListAndCount(t *testing.T) {
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			for seed := int64(10); seed < 13; seed++ {
				if _, err := db.SaveTopology(generate(t, 6, true, seed)); err != nil {
					t.Fatalf("SaveTopology(%d) failed: %v", seed, err)
				}
			}

			count, err := db.CountTopologies()
			if err != nil {
				t.Fatalf("CountTopologies failed: %v", err)
			}
			if count != 3 {
				t.Errorf("Count = %d, want 3", count)
			}

			list, err := db.ListTopologies(0)
			if err != nil {
				t.Fatalf("ListTopologies failed: %v", err)
			}
			if len(list) != 3 || list[0].Seed != 12 {
				t.Errorf("Unexpected listing: %+v", list)
			}
		})
	}
}
