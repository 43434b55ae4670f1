package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sheetbridge/sheetbridge/internal/audit"
	"github.com/sheetbridge/sheetbridge/internal/config"
	"github.com/sheetbridge/sheetbridge/internal/logging"
	"github.com/sheetbridge/sheetbridge/internal/profile"
	"github.com/sheetbridge/sheetbridge/internal/sheetio"
	"github.com/sheetbridge/sheetbridge/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"profiles_path", cfg.Profiles.Path,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"auditing", cfg.Database.URL != "",
	)

	count, err := profile.LoadFile(cfg.Profiles.Path)
	if err != nil {
		slog.Error("failed to load profiles", "path", cfg.Profiles.Path, "error", err)
		os.Exit(1)
	}
	slog.Info("profiles registered", "count", count)

	ctx := context.Background()

	// Auditing is optional: without DATABASE_URL conversions are not recorded.
	var recorder audit.Recorder = audit.Nop{}
	if cfg.Database.URL != "" {
		pool, err := newPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := audit.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare audit schema", "error", err)
			os.Exit(1)
		}
		recorder = store

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("audit store connected", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("audit store connected")
		}
	}

	server := web.NewServer(cfg, sheetio.New(), recorder)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

func newPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
