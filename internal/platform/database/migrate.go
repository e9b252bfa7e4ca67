package database

import (
	"embed"
	"errors"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"sheet_analytics/internal/platform/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies all pending schema migrations embedded in the binary.
func Migrate() {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		log.Fatalf("Error loading embedded migrations: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, "pgx5://"+dsnURL())
	if err != nil {
		log.Fatalf("Error initializing migrations: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Error applying migrations: %v", err)
	}
	log.Println("Database schema up to date.")
}

func dsnURL() string {
	c := config.AppConfig
	return c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort +
		"/" + c.DBName + "?sslmode=" + c.DBSslMode
}
