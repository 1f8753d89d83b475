/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the credit scheduling server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment / .env)
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Start the overdue sweep schedule
  5. Start server with graceful shutdown

CONFIGURATION (environment variables):
  PORT        HTTP server port (default: 8080)
  DB_PATH     SQLite database path (default: credit.db)
              Use ":memory:" for an in-memory database
  LOG_LEVEL   logrus level (default: info)
  SWEEP_SPEC  cron expression for the overdue sweep (default: 0 2 * * *)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweep schedule
  4. Close database connection
  5. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/sweeper.go: Overdue sweep
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/credit-engine/api"
	"github.com/warp/credit-engine/config"
	"github.com/warp/credit-engine/store/sqlite"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Initialize handler and the overdue sweep
	handler := api.NewHandler(store, nil)
	sweeper := api.NewSweeper(store, nil, logger)
	if err := sweeper.Start(cfg.SweepSpec); err != nil {
		logger.WithError(err).Fatal("Invalid sweep schedule")
	}
	defer sweeper.Stop()

	// Create router and server
	router := api.NewRouter(handler, sweeper)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}
