// migrate-to-postgres copies the topology run history from SQLite to
// PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/dungeongen.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user dungeongen \
//	    -pg-password dungeongen \
//	    -pg-database dungeongen
package main

import (
	"flag"
	"log"
	"os"

	"github.com/lawnchairsociety/dungeontopo/internal/database"
)

func main() {
	// Parse command-line flags
	sqlitePath := flag.String("sqlite", "data/dungeongen.db", "Path to SQLite database")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "dungeongen", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password (or DUNGEONGEN_PG_PASSWORD)")
	pgDatabase := flag.String("pg-database", "dungeongen", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	if *pgPassword == "" {
		*pgPassword = os.Getenv("DUNGEONGEN_PG_PASSWORD")
	}

	log.Println("SQLite to PostgreSQL Migration Tool")
	log.Println("====================================")

	if _, err := os.Stat(*sqlitePath); err != nil {
		log.Fatalf("SQLite database not found: %v", err)
	}

	log.Printf("Opening SQLite database: %s", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite database: %v", err)
	}
	defer src.Close()

	log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	dst, err := database.OpenWithConfig(database.Config{
		Driver: "postgres",
		Postgres: database.PostgresConfig{
			Host:     *pgHost,
			Port:     *pgPort,
			User:     *pgUser,
			Password: *pgPassword,
			Database: *pgDatabase,
			SSLMode:  *pgSSLMode,
		},
	})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer dst.Close()

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	stats, err := database.CopyTopologies(src, dst, *dryRun)
	if err != nil {
		log.Fatalf("Migration failed after %d topologies: %v", stats.Copied, err)
	}

	log.Println("====================================")
	log.Printf("Migration complete! Copied %d topologies, skipped %d already present", stats.Copied, stats.Skipped)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}
