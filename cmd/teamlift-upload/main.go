package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/teamlift/internal/logging"
	"github.com/claude/teamlift/internal/upload"
	"github.com/google/uuid"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "TeamLift server URL (e.g. https://teamlift.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("TEAMLIFT_AUTH_API_KEY"), "API key for write endpoints")
	teamFlag := flag.String("team", "", "team UUID (required)")
	csvPath := flag.String("path", "", "season-max CSV file or directory of CSV files (required)")
	dryRun := flag.Bool("dry-run", false, "parse files but don't send to server")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("teamlift-upload", Version)
		return
	}

	log, closer := logging.Setup(logging.Params{Level: *logLevel})
	defer closer.Close()

	if *csvPath == "" || *teamFlag == "" {
		fmt.Fprintf(os.Stderr, "Usage: teamlift-upload -server <URL> -api-key <key> -team <UUID> -path <CSV file or dir> [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	teamID, err := uuid.Parse(*teamFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -team: %v\n", err)
		os.Exit(1)
	}
	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenStateDB(filepath.Join(homeDir, ".teamlift-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	var importer upload.Importer
	if *dryRun {
		log.Info("DRY RUN mode: files will be parsed but not sent")
	} else {
		importer = upload.NewClient(*serverURL, *apiKey)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := upload.New(importer, state, teamID, *csvPath, *dryRun, log).Run(ctx)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesImported)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Rows received:    %d\n", stats.RowsReceived)
	fmt.Printf("  Rows imported:    %d\n", stats.RowsImported)
	fmt.Printf("  Rows failed:      %d\n", stats.RowsFailed)

	if len(stats.Unmatched) > 0 {
		fmt.Printf("\n  Names not on the roster:\n")
		for _, n := range stats.Unmatched {
			fmt.Printf("    - %s\n", n)
		}
	}
	fmt.Println()
}
