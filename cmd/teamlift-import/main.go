package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/teamlift/internal/config"
	"github.com/claude/teamlift/internal/ingest/maxcsv"
	"github.com/claude/teamlift/internal/logging"
	"github.com/claude/teamlift/internal/storage"
	"github.com/claude/teamlift/internal/upload"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	teamFlag := flag.String("team", "", "team UUID (required)")
	csvPath := flag.String("path", "", "season-max CSV file or directory of CSV files (required)")
	stateDir := flag.String("state-dir", "", "directory for the import state database (default ~/.teamlift-import)")
	dryRun := flag.Bool("dry-run", false, "parse and report rows without writing to the database")
	flag.Parse()

	if *csvPath == "" || *teamFlag == "" {
		fmt.Fprintf(os.Stderr, "Usage: teamlift-import -config config.yaml -team <UUID> -path <CSV file or dir> [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	teamID, err := uuid.Parse(*teamFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -team: %v\n", err)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log, closer := logging.Setup(logging.Params{Level: cfg.Log.Level, File: cfg.Log.File, JSON: cfg.Log.JSON, AlsoStdout: cfg.Log.AlsoStdout})
	defer closer.Close()

	if *stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(home, ".teamlift-import")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var importer upload.Importer
	var state *upload.StateDB
	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	} else {
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")
		importer = maxcsv.NewProvider(db, log)

		state, err = upload.OpenStateDB(*stateDir)
		if err != nil {
			log.Error("failed to open state database", "error", err)
			os.Exit(1)
		}
		defer state.Close()
	}

	stats, err := upload.New(importer, state, teamID, *csvPath, *dryRun, log).Run(ctx)
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *upload.Stats) {
	log.Info("import stats",
		"files_total", stats.FilesTotal,
		"files_imported", stats.FilesImported,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"rows_received", stats.RowsReceived,
		"rows_imported", stats.RowsImported,
		"rows_failed", stats.RowsFailed,
	)
	if len(stats.Unmatched) > 0 {
		log.Info("names not on the roster", "names", stats.Unmatched)
	}
}
