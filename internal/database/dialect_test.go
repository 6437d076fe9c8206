package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
)

func TestNewDialect(t *testing.T) {
	tests := []struct {
		kind       DialectType
		driver     string
		lastInsert bool
		returning  string
		primaryKey string
	}{
		{DialectSQLite, "sqlite", true, "", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{DialectPostgres, "postgres", false, " RETURNING seq", "BIGSERIAL PRIMARY KEY"},
		{"oracle", "sqlite", true, "", "INTEGER PRIMARY KEY AUTOINCREMENT"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			d := NewDialect(tt.kind)
			if got := d.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %q, want %q", got, tt.driver)
			}
			if got := d.SupportsLastInsertID(); got != tt.lastInsert {
				t.Errorf("SupportsLastInsertID() = %v, want %v", got, tt.lastInsert)
			}
			if got := d.ReturningClause("seq"); got != tt.returning {
				t.Errorf("ReturningClause(seq) = %q, want %q", got, tt.returning)
			}
			if got := d.AutoIncrementPrimaryKey(); got != tt.primaryKey {
				t.Errorf("AutoIncrementPrimaryKey() = %q, want %q", got, tt.primaryKey)
			}
		})
	}
}

func TestSQLiteDialect_InitStatementsEnableForeignKeys(t *testing.T) {
	// topology_edges rows rely on ON DELETE CASCADE.
	stmts := (&SQLiteDialect{}).InitStatements()
	found := false
	for _, s := range stmts {
		if s == "PRAGMA foreign_keys = ON" {
			found = true
		}
	}
	if !found {
		t.Errorf("foreign keys not enabled: %v", stmts)
	}
	if (&PostgresDialect{}).InitStatements() != nil {
		t.Error("postgres needs no init statements")
	}
}

func TestDialect_IsDuplicateKeyError(t *testing.T) {
	sqlite := &SQLiteDialect{}
	postgres := &PostgresDialect{}

	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{"sqlite nil", sqlite, nil, false},
		{"sqlite fingerprint", sqlite, errors.New("UNIQUE constraint failed: topologies.fingerprint"), true},
		{"sqlite id", sqlite, errors.New("UNIQUE constraint failed: topologies.id"), true},
		{"sqlite other", sqlite, errors.New("database is locked"), false},
		{"postgres nil", postgres, nil, false},
		{"postgres pq unique", postgres, &pq.Error{Code: "23505"}, true},
		{"postgres pq wrapped", postgres, fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"postgres pq other code", postgres, &pq.Error{Code: "23503", Message: "violates foreign key"}, false},
		{"postgres text", postgres, errors.New(`duplicate key value violates unique constraint "topologies_fingerprint_key"`), true},
		{"postgres other", postgres, errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsDuplicateKeyError(tt.err); got != tt.want {
				t.Errorf("IsDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestQueryBuilder_Build(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"sqlite unchanged", &SQLiteDialect{}, "SELECT id FROM topologies WHERE seed = ?", "SELECT id FROM topologies WHERE seed = ?"},
		{"postgres numbered", &PostgresDialect{}, "SELECT id FROM topologies WHERE fingerprint = ? AND seed = ?", "SELECT id FROM topologies WHERE fingerprint = $1 AND seed = $2"},
		{"postgres empty", &PostgresDialect{}, "", ""},
		{"postgres none", &PostgresDialect{}, "SELECT COUNT(*) FROM topologies", "SELECT COUNT(*) FROM topologies"},
		{"postgres literal", &PostgresDialect{}, "SELECT id FROM topologies WHERE id <> '?' AND seed = ?", "SELECT id FROM topologies WHERE id <> '?' AND seed = $1"},
		{"postgres escaped quote", &PostgresDialect{}, "SELECT 'it''s ?' WHERE seq = ?", "SELECT 'it''s ?' WHERE seq = $1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewQueryBuilder(tt.dialect).Build(tt.query); got != tt.want {
				t.Errorf("Build(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestQueryBuilder_BuildWithReturning(t *testing.T) {
	query := insertQuery("topologies", "id", "seed")
	if query != "INSERT INTO topologies (id, seed) VALUES (?, ?)" {
		t.Fatalf("insertQuery = %q", query)
	}

	if got := NewQueryBuilder(&SQLiteDialect{}).BuildWithReturning(query, "seq"); got != query {
		t.Errorf("sqlite: got %q, want %q", got, query)
	}

	want := "INSERT INTO topologies (id, seed) VALUES ($1, $2) RETURNING seq"
	if got := NewQueryBuilder(&PostgresDialect{}).BuildWithReturning(query, "seq"); got != want {
		t.Errorf("postgres: got %q, want %q", got, want)
	}
}

func TestQueryBuilder_ManyPlaceholders(t *testing.T) {
	cols := make([]string, 12)
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	got := NewQueryBuilder(&PostgresDialect{}).Build(insertQuery("topologies", cols...))
	if !strings.HasSuffix(got, "$10, $11, $12)") {
		t.Errorf("double-digit placeholders not numbered: %q", got)
	}
}

func TestConfig_DialectType(t *testing.T) {
	for driver, want := range map[string]DialectType{"": DialectSQLite, "sqlite": DialectSQLite, "postgres": DialectPostgres} {
		got, err := Config{Driver: driver}.dialectType()
		if err != nil || got != want {
			t.Errorf("dialectType(%q) = %q, %v; want %q", driver, got, err, want)
		}
	}
	if _, err := (Config{Driver: "mysql"}).dialectType(); err == nil {
		t.Error("expected an error for an unsupported driver")
	}
	if _, err := OpenWithConfig(Config{Driver: "mysql"}); err == nil {
		t.Error("OpenWithConfig accepted an unsupported driver")
	}
}

func TestPostgresConfig_ConnString(t *testing.T) {
	cfg := DefaultPostgresConfig()
	cfg.User = "dungeongen"
	cfg.Database = "dungeongen"
	want := "host=localhost port=5432 user=dungeongen dbname=dungeongen sslmode=disable"
	if got := cfg.ConnString(); got != want {
		t.Errorf("ConnString() = %q, want %q", got, want)
	}

	cfg.Password = `it's a \secret`
	want = `host=localhost port=5432 user=dungeongen password='it\'s a \\secret' dbname=dungeongen sslmode=disable`
	if got := cfg.ConnString(); got != want {
		t.Errorf("ConnString() = %q, want %q", got, want)
	}

	if got := (PostgresConfig{}).ConnString(); got != "" {
		t.Errorf("empty config should render nothing, got %q", got)
	}
}
