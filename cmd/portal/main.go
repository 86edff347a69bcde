// Command portal serves the school activities signup page.
//
// Configuration comes from the environment (see internal/config), optionally
// seeded from a YAML or JSON file named by PORTAL_CONFIG:
//
//	SESSION_SECRET=$(openssl rand -hex 32) BACKEND_URL=http://localhost:8000 portal
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/activities-portal/internal/config"
	"github.com/sakif/activities-portal/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, _ := cfg.Level()
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
