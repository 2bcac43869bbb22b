// Package main implements the entry point for the hanzi study API server,
// which schedules adaptive flashcard review sessions over a user's decks.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hanzistudy/hanzi-api/internal/config"
	"github.com/hanzistudy/hanzi-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd, appLogger); err != nil {
			appLogger.Error("migration failed",
				slog.String("command", *migrateCmd),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.run(); err != nil {
		appLogger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("Server stopped")
}
