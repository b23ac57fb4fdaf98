package warehouse

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // PGX v5 driver for golang-migrate
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the PostgreSQL warehouse schema.
//
// Migrations are read from dir when set, otherwise the ones shipped with the binary are used.
func Migrate(cfg PostgresConfig, dir string) (err error) {
	dsn := cfg.URI("pgx5")

	var m *migrate.Migrate
	if dir == "" {
		src, err := iofs.New(migrations, "migrations")
		if err != nil {
			return fmt.Errorf("failed to read embedded migrations: %v", err)
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, dsn)
		if err != nil {
			return fmt.Errorf("failed to create migration instance: %v", err)
		}
	} else {
		m, err = migrate.New(fmt.Sprintf("file://%s", dir), dsn)
		if err != nil {
			return fmt.Errorf("failed to create migration instance: %v", err)
		}
	}
	defer func() {
		if sErr, dbErr := m.Close(); sErr != nil || dbErr != nil {
			if sErr != nil {
				slog.Error("failed to close migration instance", "error", sErr)
			}
			if dbErr != nil {
				slog.Error("failed to close database connection", "error", dbErr)
			}
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No new migrations to apply")
			return nil
		}

		return fmt.Errorf("failed to apply migrations: %v", err)
	}
	slog.Info("Migrations applied successfully")
	return nil
}
