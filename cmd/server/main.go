/*
main.go - Application entry point

PURPOSE:
  Starts the overtime review server. Handles configuration, logging and
  graceful shutdown; wiring lives in package app.

COMMAND-LINE FLAGS:
  -config  YAML config path (default: ./overtime.yaml when present)
  -port    HTTP server port, overrides config
  -db      SQLite database path, overrides config
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/overtime.db"
  ./server -db=":memory:" -port=3000

ENVIRONMENT:
  OVERTIME_PORT, OVERTIME_DB, OVERTIME_LOG_LEVEL, OVERTIME_FONT_PATH
  (also read from .env)

SEE ALSO:
  - app/app.go: Store, service and router wiring
  - config/config.go: Configuration sources
*/
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/app"
	"github.com/warp/overtime-engine/config"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config path")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := api.NewLogger(os.Stdout, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
