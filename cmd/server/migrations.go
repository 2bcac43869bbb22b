package main

import (
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/hanzistudy/hanzi-api/internal/config"
	"github.com/hanzistudy/hanzi-api/migrations"
)

// runMigrations executes a goose migration command against the configured
// database using the SQL files embedded in the migrations package.
func runMigrations(cfg *config.Config, command string, logger *slog.Logger) error {
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("failed to close database after migrations",
				slog.String("error", closeErr.Error()))
		}
	}()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	logger.Info("running migrations", slog.String("command", command))

	switch command {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	default:
		return fmt.Errorf("unknown migration command %q (want up, down, or status)", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	logger.Info("migrations complete", slog.String("command", command))
	return nil
}
