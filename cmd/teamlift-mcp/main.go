package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/teamlift/internal/config"
	"github.com/claude/teamlift/internal/logging"
	"github.com/claude/teamlift/internal/mcp"
	"github.com/claude/teamlift/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode, reads the database directly)")
	serverURL := flag.String("server", "", "TeamLift server URL (remote mode, reads the REST API)")
	teamFlag := flag.String("team", "", "default team UUID for tools called without team_id")
	logFile := flag.String("log-file", "", "log to this file instead of stderr")
	flag.Parse()

	if (*configPath == "") == (*serverURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: teamlift-mcp (-config config.yaml | -server <URL>) [-team <UUID>]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var team uuid.UUID
	if *teamFlag != "" {
		var err error
		if team, err = uuid.Parse(*teamFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -team: %v\n", err)
			os.Exit(1)
		}
	}

	// stdout carries the MCP protocol; logs never go there.
	params := logging.Params{Level: "info", File: *logFile}
	var cfg *config.Config
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		params.Level = cfg.Log.Level
		params.JSON = cfg.Log.JSON
		if params.File == "" {
			params.File = cfg.Log.File
		}
	}
	log, closer := logging.Setup(params)
	defer closer.Close()

	ctx := context.Background()
	var ds mcp.DataSource
	if cfg != nil {
		db, err := storage.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			closer.Close()
			os.Exit(1)
		}
		defer db.Close()
		ds = db
		log.Info("mcp using database", "host", cfg.Database.Host, "name", cfg.Database.Name)
	} else {
		ds = mcp.NewHTTPClient(*serverURL)
		log.Info("mcp using remote server", "url", *serverURL)
	}

	s := mcp.New(ds, nil, Version, log)
	err := server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithTeamID(ctx, team)
	}))
	if err != nil {
		log.Error("mcp server stopped", "error", err)
		closer.Close()
		os.Exit(1)
	}
}
