// Package main is the entry point for the MindScale game server.
// It initializes all dependencies and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"mindscale/src/app/server"
	"mindscale/src/core/engine"
	"mindscale/src/core/ports"
	"mindscale/src/core/usecase"
	"mindscale/src/infra/config"
	"mindscale/src/infra/db"
	"mindscale/src/infra/logger"
	"mindscale/src/infra/membership"
	"mindscale/src/infra/notify"
	"mindscale/src/infra/repo"
)

func main() {
	if err := run(); err != nil {
		log.Printf("fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from .env and environment variables
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	log.Info("starting application",
		"port", cfg.Server.Port,
		"log_level", cfg.Log.Level,
		"db_driver", cfg.Database.Driver,
	)

	// Initialize the statistics store
	stats, closeStore, err := openStore(context.Background(), cfg.Database, logger.WithComponent(log, "db"))
	if err != nil {
		return err
	}
	defer closeStore()

	hub := notify.NewHub(cfg.Server.AllowedOrigins, logger.WithComponent(log, "notify"))
	defer hub.Close()

	eng := engine.New(engine.Settings{
		JoinWindow:  cfg.Game.JoinWindow,
		PickWindow:  cfg.Game.PickWindow,
		MinPlayers:  cfg.Game.MinPlayers,
		MaxPlayers:  cfg.Game.MaxPlayers,
		ExtendCap:   cfg.Game.ExtendCap,
		CallTimeout: cfg.Game.CallTimeout,
	}, engine.Deps{
		Messenger: hub,
		Members:   membership.NewStatic(cfg.Admin.UserIDs, logger.WithComponent(log, "membership")),
		Results:   stats,
	}, logger.WithComponent(log, "engine"))
	// Deferred last so it runs first: queued notices and results are
	// delivered before the hub and the store close.
	defer eng.Close()

	srv := server.New(cfg, log, server.Deps{
		Games:   eng,
		Stats:   usecase.NewStatsService(stats, logger.WithComponent(log, "stats")),
		Health:  usecase.NewHealthService(stats, hub, eng, log),
		Notices: hub,
	})

	// Run blocks until shutdown signal is received
	return srv.Run()
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (ports.ResultRepository, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		pg, err := db.New(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewPostgresRepository(pg, log), pg.Close, nil
	case "sqlite":
		lite, err := db.OpenSQLite(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewSQLiteRepository(lite, log), lite.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
