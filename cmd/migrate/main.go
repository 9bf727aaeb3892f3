// Applies the embedded schema migrations: migrate [up|down|drop|version]
package main

import (
	"errors"
	"fmt"
	"os"

	"attendance.service/internal/config"
	"attendance.service/migrations"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	steps := pflag.Int("steps", 0, "number of migrations to roll back with down (0 rolls back all)")
	pflag.Parse()

	action := "up"
	if pflag.NArg() > 0 {
		action = pflag.Arg(0)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	logger.Setup(cfg.IsLocalDev)

	if err := run(cfg, action, *steps); err != nil {
		log.Fatal().Err(err).Str("action", action).Msg("Migration failed")
	}
	log.Info().Str("action", action).Msg("Migration completed")
}

func run(cfg config.Config, action string, steps int) error {
	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("creating migrate driver: %w", err)
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		db.Close()
		return fmt.Errorf("reading embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	// Closing m closes the driver and with it db.
	defer m.Close()

	switch action {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		if steps > 0 {
			return ignoreNoChange(m.Steps(-steps))
		}
		return ignoreNoChange(m.Down())
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info().Msg("No migration applied")
			return nil
		}
		if err != nil {
			return err
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
		return nil
	default:
		fmt.Fprintf(os.Stderr, "usage: migrate [--steps n] [up|down|drop|version]\n")
		return fmt.Errorf("unsupported action %q", action)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
