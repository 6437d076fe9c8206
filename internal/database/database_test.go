package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func generate(t *testing.T, rooms int, boss bool, seed int64) *topology.Result {
	t.Helper()
	opts := topology.DefaultOptions()
	opts.Rooms = rooms
	opts.Boss = boss
	opts.Seed = seed
	r, err := topology.Generate(opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return r
}

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Verify file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	for _, table := range []string{"topologies", "topology_edges"} {
		var count int
		if err := db.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("Failed to query %s table: %v", table, err)
		}
	}

	if _, ok := db.Dialect().(*SQLiteDialect); !ok {
		t.Errorf("Expected SQLite dialect, got %T", db.Dialect())
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := Open(nestedPath)
	if err != nil {
		t.Fatalf("Failed to open database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nestedPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestOpenWithConfig_UnknownDriver(t *testing.T) {
	_, err := OpenWithConfig(Config{Driver: "mysql"})
	if err == nil {
		t.Fatal("Expected error for unknown driver")
	}
}

func TestMigration_TopologiesTableSchema(t *testing.T) {
	db := openTestDB(t)

	columns := []string{"seq", "id", "fingerprint", "seed", "rooms", "start_room", "boss_room",
		"boss_anchor", "attempts", "backtracks", "room_types", "rotations", "created_at"}
	for _, col := range columns {
		var exists int
		err := db.db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('topologies') WHERE name = ?", col).Scan(&exists)
		if err != nil {
			t.Fatalf("Failed to check column %s: %v", col, err)
		}
		if exists == 0 {
			t.Errorf("Column %s not found in topologies table", col)
		}
	}
}

func TestMigration_PragmasEnabled(t *testing.T) {
	db := openTestDB(t)

	var fkEnabled int
	if err := db.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("Failed to check foreign_keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("Foreign keys are not enabled")
	}

	var journalMode string
	if err := db.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to check journal_mode pragma: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected WAL mode, got %s", journalMode)
	}
}

func TestMigration_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database first time: %v", err)
	}
	rec, err := db1.SaveTopology(generate(t, 5, true, 1))
	if err != nil {
		t.Fatalf("SaveTopology failed: %v", err)
	}
	db1.Close()

	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database second time: %v", err)
	}
	defer db2.Close()

	if _, err := db2.GetTopology(rec.ID); err != nil {
		t.Errorf("Stored topology lost after reopening: %v", err)
	}
}

func TestSaveAndGetTopology(t *testing.T) {
	db := openTestDB(t)
	r := generate(t, 7, true, 20240611)

	rec, err := db.SaveTopology(r)
	if err != nil {
		t.Fatalf("SaveTopology failed: %v", err)
	}
	if rec.ID == "" || rec.Seq == 0 {
		t.Errorf("Expected id and seq to be set, got %q / %d", rec.ID, rec.Seq)
	}
	if rec.Fingerprint != r.Fingerprint() {
		t.Errorf("Fingerprint = %s, want %s", rec.Fingerprint, r.Fingerprint())
	}

	got, err := db.GetTopology(rec.ID)
	if err != nil {
		t.Fatalf("GetTopology failed: %v", err)
	}

	loaded := got.Result
	if loaded.Fingerprint() != r.Fingerprint() {
		t.Errorf("Loaded topology hashes to %s, want %s", loaded.Fingerprint(), r.Fingerprint())
	}
	if loaded.Seed != r.Seed || loaded.Attempts != r.Attempts || loaded.Backtracks != r.Backtracks {
		t.Errorf("Run statistics not preserved: %+v", loaded)
	}
	if loaded.BossRoom == nil || *loaded.BossRoom != *r.BossRoom {
		t.Errorf("BossRoom = %v, want %d", loaded.BossRoom, *r.BossRoom)
	}
	if loaded.BossAnchor != r.BossAnchor {
		t.Errorf("BossAnchor = %d, want %d", loaded.BossAnchor, r.BossAnchor)
	}
	if len(loaded.Edges) != len(r.Edges) {
		t.Fatalf("Loaded %d edges, want %d", len(loaded.Edges), len(r.Edges))
	}
	for i := range r.Edges {
		if loaded.Edges[i] != r.Edges[i] || loaded.Doors[i] != r.Doors[i] {
			t.Errorf("Edge %d = %v %v, want %v %v", i, loaded.Edges[i], loaded.Doors[i], r.Edges[i], r.Doors[i])
		}
	}
	if got.CreatedAt.Sub(rec.CreatedAt).Abs() > time.Second {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestSaveTopology_SingleRoom(t *testing.T) {
	db := openTestDB(t)

	rec, err := db.SaveTopology(generate(t, 1, false, 3))
	if err != nil {
		t.Fatalf("SaveTopology failed: %v", err)
	}

	got, err := db.GetTopology(rec.ID)
	if err != nil {
		t.Fatalf("GetTopology failed: %v", err)
	}
	if len(got.Result.Edges) != 0 || got.Result.BossRoom != nil {
		t.Errorf("Expected a lone room, got %+v", got.Result)
	}
	if len(got.Result.Rotations) != 1 || got.Result.Rotations[0] != 0 {
		t.Errorf("Rotations = %v, want [0]", got.Result.Rotations)
	}
}

func TestSaveTopology_Duplicate(t *testing.T) {
	db := openTestDB(t)
	r := generate(t, 6, false, 11)

	if _, err := db.SaveTopology(r); err != nil {
		t.Fatalf("SaveTopology failed: %v", err)
	}
	_, err := db.SaveTopology(r)
	if !errors.Is(err, ErrDuplicateTopology) {
		t.Errorf("Expected ErrDuplicateTopology, got %v", err)
	}

	count, err := db.CountTopologies()
	if err != nil {
		t.Fatalf("CountTopologies failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestGetTopology_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetTopology("missing")
	if !errors.Is(err, ErrTopologyNotFound) {
		t.Errorf("Expected ErrTopologyNotFound, got %v", err)
	}
}

func TestListTopologies(t *testing.T) {
	db := openTestDB(t)

	var ids []string
	for seed := int64(1); seed <= 4; seed++ {
		rec, err := db.SaveTopology(generate(t, 8, seed%2 == 0, seed))
		if err != nil {
			t.Fatalf("SaveTopology(%d) failed: %v", seed, err)
		}
		ids = append(ids, rec.ID)
	}

	list, err := db.ListTopologies(3)
	if err != nil {
		t.Fatalf("ListTopologies failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Listed %d topologies, want 3", len(list))
	}

	// Newest first
	if list[0].ID != ids[3] || list[2].ID != ids[1] {
		t.Errorf("Unexpected order: %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
	if list[0].Seed != 4 || list[0].BossRoom == nil || list[0].Rooms != 9 {
		t.Errorf("Unexpected summary: %+v", list[0])
	}
	if list[1].BossRoom != nil || list[1].Rooms != 8 {
		t.Errorf("Unexpected summary: %+v", list[1])
	}
}

func TestDeleteTopology_CascadesEdges(t *testing.T) {
	db := openTestDB(t)

	rec, err := db.SaveTopology(generate(t, 5, false, 2))
	if err != nil {
		t.Fatalf("SaveTopology failed: %v", err)
	}

	if err := db.DeleteTopology(rec.ID); err != nil {
		t.Fatalf("DeleteTopology failed: %v", err)
	}

	var edges int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM topology_edges WHERE topology_id = ?", rec.ID).Scan(&edges); err != nil {
		t.Fatalf("Failed to count edges: %v", err)
	}
	if edges != 0 {
		t.Errorf("Expected edges to cascade, %d remain", edges)
	}

	if err := db.DeleteTopology(rec.ID); !errors.Is(err, ErrTopologyNotFound) {
		t.Errorf("Expected ErrTopologyNotFound on second delete, got %v", err)
	}
}

func TestIntListRoundTrip(t *testing.T) {
	values, err := splitInts(joinInts([]int{0, 3, 1, 2}))
	if err != nil {
		t.Fatalf("splitInts failed: %v", err)
	}
	if len(values) != 4 || values[1] != 3 {
		t.Errorf("Round trip = %v", values)
	}

	if _, err := splitInts("1,x"); err == nil {
		t.Error("Expected error for non-numeric rotation")
	}
}
