package database

import (
	"fmt"
	"strings"
	"time"
)

// Config selects the run-history store.
type Config struct {
	// Driver is "sqlite" or "postgres". Empty means sqlite.
	Driver string

	SQLitePath string
	Postgres   PostgresConfig
}

// PostgresConfig holds the connection and pool settings for a shared
// history database.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a Config for the SQLite file at sqlitePath.
func DefaultConfig(sqlitePath string) Config {
	return Config{
		Driver:     string(DialectSQLite),
		SQLitePath: sqlitePath,
	}
}

// DefaultPostgresConfig returns PostgresConfig with a local server and
// modest pool settings. History writes are small and infrequent.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// dialectType maps Driver to a dialect.
func (c Config) dialectType() (DialectType, error) {
	switch c.Driver {
	case "", string(DialectSQLite):
		return DialectSQLite, nil
	case string(DialectPostgres):
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", c.Driver)
}

// ConnString renders the lib/pq key/value connection string. Empty settings
// are left out so libpq defaults and PG* environment variables apply.
func (c PostgresConfig) ConnString() string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+quoteConnValue(value))
		}
	}

	add("host", c.Host)
	if c.Port > 0 {
		add("port", fmt.Sprint(c.Port))
	}
	add("user", c.User)
	add("password", c.Password)
	add("dbname", c.Database)
	add("sslmode", c.SSLMode)
	return strings.Join(parts, " ")
}

// quoteConnValue single-quotes values containing spaces, quotes or
// backslashes, escaping the latter two.
func quoteConnValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
