package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/claude/teamlift/internal/charts"
	"github.com/claude/teamlift/internal/config"
	"github.com/claude/teamlift/internal/ingest/maxcsv"
	"github.com/claude/teamlift/internal/logging"
	"github.com/claude/teamlift/internal/metrics"
	"github.com/claude/teamlift/internal/prescription"
	"github.com/claude/teamlift/internal/server"
	"github.com/claude/teamlift/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	templatesPath := flag.String("templates", "", "YAML set templates replacing the built-in library")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log, closer := logging.Setup(logging.Params{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		JSON:       cfg.Log.JSON,
		AlsoStdout: cfg.Log.AlsoStdout,
	})
	defer closer.Close()
	log.Info("TeamLift starting", "version", Version)

	if err := run(cfg, *templatesPath, *migrateOnly, log); err != nil {
		log.Error("fatal", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, templatesPath string, migrateOnly bool, log *slog.Logger) error {
	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("migrations applied")

	if migrateOnly {
		log.Info("migrate-only: exiting")
		return nil
	}

	templates := prescription.DefaultLibrary()
	if templatesPath != "" {
		data, err := os.ReadFile(templatesPath)
		if err != nil {
			return fmt.Errorf("reading templates: %w", err)
		}
		if templates, err = prescription.LoadLibrary(data); err != nil {
			return fmt.Errorf("loading templates: %w", err)
		}
		log.Info("templates loaded", "path", templatesPath, "count", len(templates.Names()))
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()
	log.Info("database connected")

	reg := metrics.NewRegistry(pgxpoolprometheus.NewCollector(db.Pool, map[string]string{"db_name": cfg.Database.Name}))
	m := metrics.NewManager("teamlift", "server", reg)

	srv := server.New(db, maxcsv.NewProvider(db, log), server.Options{
		APIKey:     cfg.Auth.APIKey,
		WindowDays: cfg.Analytics.DefaultWindowDays,
		Templates:  templates,
		Charts:     charts.NewCache(cfg.Charts.CacheMB),
		Metrics:    m,
		Gatherer:   reg,
	}, log)

	// Start server: tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			return fmt.Errorf("tsnet start failed: %w", err)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			return fmt.Errorf("tsnet local client failed: %w", err)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen failed: %w", err)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s failed: %w", addr, err)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig)
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
	return nil
}
