// Package cli implements the dungeongen command-line interface.
//
// # Commands
//
//   - generate: build a topology and print or export it
//   - render: convert a saved YAML topology to DOT, SVG or PNG
//   - serve: run the HTTP/WebSocket preview server
//   - history: list topologies stored in the run history
//   - catalog: print the active archetype door layouts
//
// Every command reads the same configuration file (--config, YAML or TOML)
// and logs through the structured logger configured by --log-config.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/dungeontopo/internal/config"
	"github.com/lawnchairsociety/dungeontopo/internal/database"
	"github.com/lawnchairsociety/dungeontopo/internal/logger"
)

const appName = "dungeongen"

var (
	version = "dev" // semantic version (e.g., "v1.2.3")
	commit  string  // git commit SHA
	date    string  // build timestamp
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	configPath    string
	logConfigPath string
	verbose       bool

	cfg *config.GeneratorConfig
}

// New creates a new CLI instance.
func New() *CLI {
	return &CLI{}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "dungeongen builds connected dungeon topologies",
		Long:         `dungeongen generates connected room graphs, assigns door archetypes and rotations so every corridor joins facing doors, and optionally attaches a boss room.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "configuration file (YAML or TOML)")
	root.PersistentFlags().StringVar(&c.logConfigPath, "log-config", "", "logging configuration file (YAML)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.catalogCommand())

	return root
}

// setup initializes logging and loads the configuration file.
func (c *CLI) setup() error {
	logCfg, err := logger.LoadConfig(c.logConfigPath)
	if err != nil {
		return err
	}
	if c.verbose {
		logCfg.Level = "DEBUG"
	}
	if err := logger.Initialize(logCfg); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	logger.Debug("Configuration loaded", "path", c.configPath, "storage", cfg.Storage.Driver)
	return nil
}

// openStore opens the run history named by the storage section.
func (c *CLI) openStore() (*database.Database, error) {
	db, err := database.OpenWithConfig(c.cfg.ToDatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return db, nil
}
