package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/novelreads-coin-ledger/internal/api_gateway"
	"github.com/novelreads-coin-ledger/internal/config"
	"github.com/novelreads-coin-ledger/internal/data/mongo"
	"github.com/novelreads-coin-ledger/internal/data/postgres"
	"github.com/novelreads-coin-ledger/internal/ledger"
	"github.com/novelreads-coin-ledger/internal/logger"
	"github.com/novelreads-coin-ledger/internal/payment"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
	"github.com/novelreads-coin-ledger/internal/unlock"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	balanceRepo := postgres.NewBalanceRepository(log, postgresDB)
	entryRepo := postgres.NewEntryRepository(log, postgresDB)
	grantRepo := postgres.NewGrantRepository(log, postgresDB)
	paymentRepo := postgres.NewPaymentRepository(log, postgresDB)
	packageRepo := postgres.NewPackageRepository(log, postgresDB)
	catalogRepo := postgres.NewCatalogRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	eventRepo := mongo.NewActivityRepository(log, mongoDB.Database())

	// Initialize services
	ledgerService := ledger.NewService(log, postgresDB, balanceRepo, entryRepo, outboxRepo)
	unlockService := unlock.NewService(log, postgresDB, ledgerService, grantRepo, catalogRepo, outboxRepo)
	paymentService := payment.NewService(log, postgresDB, ledgerService, paymentRepo, packageRepo, outboxRepo, &cfg.Gateway)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, ledgerService, unlockService, paymentService, catalogRepo, eventRepo)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
