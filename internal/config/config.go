package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/database"
	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// GeneratorConfig holds all dungeongen settings.
type GeneratorConfig struct {
	Generation GenerationConfig `yaml:"generation" toml:"generation"`
	Storage    StorageConfig    `yaml:"storage" toml:"storage"`
	Server     ServerConfig     `yaml:"server" toml:"server"`
}

// GenerationConfig holds the topology generation parameters.
type GenerationConfig struct {
	// Rooms is the number of regular rooms, not counting the boss room.
	Rooms int `yaml:"rooms" toml:"rooms"`

	// Boss attaches a boss room to the leaf furthest from room 0.
	Boss bool `yaml:"boss" toml:"boss"`

	// DegreeRule is "cycle", "uniform" or "explicit".
	DegreeRule    string `yaml:"degree_rule" toml:"degree_rule"`
	UniformDegree int    `yaml:"uniform_degree" toml:"uniform_degree"`
	Degrees       []int  `yaml:"degrees" toml:"degrees"`

	// Seed is the RNG seed. Unset means pick one from the current time; an
	// explicit 0 is a seed like any other.
	Seed *int64 `yaml:"seed" toml:"seed"`

	MaxAttempts int `yaml:"max_attempts" toml:"max_attempts"`

	// CatalogPath points at an archetype layout override. Empty uses the
	// built-in catalog.
	CatalogPath string `yaml:"catalog_path" toml:"catalog_path"`
}

// StorageConfig selects the run history database.
type StorageConfig struct {
	// Driver specifies which database to use: "sqlite" or "postgres"
	Driver     string         `yaml:"driver" toml:"driver"`
	SQLitePath string         `yaml:"sqlite_path" toml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres" toml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`
	Database string `yaml:"database" toml:"database"`
	SSLMode  string `yaml:"sslmode" toml:"sslmode"`

	MaxOpenConns           int `yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime_seconds" toml:"conn_max_lifetime_seconds"`
}

// ServerConfig holds preview server settings.
type ServerConfig struct {
	Listen      string            `yaml:"listen" toml:"listen"`
	WebSocket   WebSocketConfig   `yaml:"websocket" toml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections" toml:"connections"`
}

// ConnectionsConfig holds WebSocket connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip" toml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total" toml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size" toml:"max_message_size"`
}

// DefaultConfig returns a GeneratorConfig with the seven-room boss dungeon,
// a local SQLite history and a same-origin preview server.
func DefaultConfig() *GeneratorConfig {
	opts := topology.DefaultOptions()
	pg := database.DefaultPostgresConfig()

	return &GeneratorConfig{
		Generation: GenerationConfig{
			Rooms:         opts.Rooms,
			Boss:          opts.Boss,
			DegreeRule:    string(opts.DegreeRule),
			UniformDegree: opts.UniformDegree,
			MaxAttempts:   opts.MaxAttempts,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "data/dungeongen.db",
			Postgres: PostgresConfig{
				Host:                   pg.Host,
				Port:                   pg.Port,
				Database:               "dungeongen",
				SSLMode:                pg.SSLMode,
				MaxOpenConns:           pg.MaxOpenConns,
				MaxIdleConns:           pg.MaxIdleConns,
				ConnMaxLifetimeSeconds: int(pg.ConnMaxLifetime / time.Second),
			},
		},
		Server: ServerConfig{
			Listen: ":8080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 100,
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file, or TOML when the path ends
// in ".toml". If the file doesn't exist, returns default config.
func LoadConfig(path string) (*GeneratorConfig, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Use defaults if file doesn't exist
		}
		return config, err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}

	if pw := os.Getenv("DUNGEONGEN_PG_PASSWORD"); pw != "" {
		config.Storage.Postgres.Password = pw
	}

	return config, nil
}

// Validate checks every section and returns the first problem found.
func (c *GeneratorConfig) Validate() error {
	g := c.Generation
	if g.Rooms < 1 {
		return fmt.Errorf("%w: generation.rooms must be at least 1, got %d", ErrInvalidConfig, g.Rooms)
	}
	if _, err := topology.ParseDegreeRule(g.DegreeRule); err != nil {
		return fmt.Errorf("%w: generation.degree_rule: %w", ErrInvalidConfig, err)
	}
	if g.MaxAttempts < 0 {
		return fmt.Errorf("%w: generation.max_attempts must not be negative", ErrInvalidConfig)
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("%w: storage.sqlite_path is required", ErrInvalidConfig)
		}
	case "postgres":
		if c.Storage.Postgres.Host == "" || c.Storage.Postgres.Database == "" {
			return fmt.Errorf("%w: storage.postgres needs host and database", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: storage.driver %q (want sqlite or postgres)", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Server.WebSocket.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: server.websocket.max_message_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ToOptions converts the generation section into topology options. A nil
// catalog selects the built-in layouts.
func (c *GeneratorConfig) ToOptions(catalog *archetype.Catalog) (topology.Options, error) {
	rule, err := topology.ParseDegreeRule(c.Generation.DegreeRule)
	if err != nil {
		return topology.Options{}, err
	}

	seed := time.Now().UnixNano()
	if c.Generation.Seed != nil {
		seed = *c.Generation.Seed
	}

	return topology.Options{
		Rooms:         c.Generation.Rooms,
		Boss:          c.Generation.Boss,
		DegreeRule:    rule,
		UniformDegree: c.Generation.UniformDegree,
		Degrees:       append([]int(nil), c.Generation.Degrees...),
		Seed:          seed,
		MaxAttempts:   c.Generation.MaxAttempts,
		Catalog:       catalog,
	}, nil
}

// Catalog loads the archetype catalog named by generation.catalog_path.
func (c *GeneratorConfig) Catalog() (*archetype.Catalog, error) {
	return archetype.LoadCatalog(c.Generation.CatalogPath)
}

// ToDatabaseConfig converts the storage section for database.OpenWithConfig.
func (c *GeneratorConfig) ToDatabaseConfig() database.Config {
	pg := c.Storage.Postgres
	return database.Config{
		Driver:     c.Storage.Driver,
		SQLitePath: c.Storage.SQLitePath,
		Postgres: database.PostgresConfig{
			Host:            pg.Host,
			Port:            pg.Port,
			User:            pg.User,
			Password:        pg.Password,
			Database:        pg.Database,
			SSLMode:         pg.SSLMode,
			MaxOpenConns:    pg.MaxOpenConns,
			MaxIdleConns:    pg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(pg.ConnMaxLifetimeSeconds) * time.Second,
		},
	}
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	// If no origins configured, enforce same-origin policy
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// Extract host from origin URL (e.g., "http://localhost:3000" -> "localhost:3000")
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
