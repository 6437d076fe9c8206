// Package database provides SQLite and PostgreSQL persistence for generated
// dungeon topologies.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lawnchairsociety/dungeontopo/internal/logger"
)

// Database wraps the SQL connection and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database selected by cfg.Driver and runs
// migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	kind, err := cfg.dialectType()
	if err != nil {
		return nil, err
	}

	dialect := NewDialect(kind)
	var db *sql.DB
	if kind == DialectPostgres {
		db, err = openPostgres(cfg.Postgres)
	} else {
		db, err = openSQLite(cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Database opened", "driver", dialect.DriverName())
	return d, nil
}

func openSQLite(path string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs are per connection
	db.SetMaxOpenConns(1)
	return db, nil
}

func openPostgres(cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		// One row per generated topology
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS topologies (
			seq %s,
			id TEXT UNIQUE NOT NULL,
			fingerprint TEXT UNIQUE NOT NULL,
			seed BIGINT NOT NULL,
			rooms INTEGER NOT NULL,
			start_room INTEGER NOT NULL,
			boss_room INTEGER,
			boss_anchor INTEGER NOT NULL DEFAULT -1,
			attempts INTEGER NOT NULL,
			backtracks INTEGER NOT NULL DEFAULT 0,
			room_types TEXT NOT NULL,
			rotations TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, d.dialect.AutoIncrementPrimaryKey()),

		// Edges in generation order with the door serving each end
		`CREATE TABLE IF NOT EXISTS topology_edges (
			topology_id TEXT NOT NULL REFERENCES topologies(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source INTEGER NOT NULL,
			destination INTEGER NOT NULL,
			source_door TEXT NOT NULL,
			destination_door TEXT NOT NULL,
			PRIMARY KEY (topology_id, position)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_topologies_seed ON topologies(seed)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}
