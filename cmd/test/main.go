package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sales-observer/src/config"
	"sales-observer/src/generator"
	"sales-observer/src/helpers"
	"sales-observer/src/interfaces"
	"sales-observer/src/logger"
	"sales-observer/src/models"
	"sales-observer/src/storage"
)

// Load harness: feeds the store with random sales so the dashboard pipeline
// (insert -> change stream -> hub fan-out) can be exercised end to end.
func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name+"-loadgen")

	// 4. Setup storage
	db := setupDatabase(conf, appLogger)
	defer db.Close()

	// 5. Start generator (context-based direct push)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	batches := make(chan []models.MTransaction, 16)

	gen := generator.NewTransactionGenerator(conf.MConfig, logger.NewLogger(conf.LogLevel, "Generator"))
	if err := gen.Start(ctx, batches, &wg); err != nil {
		appLogger.Critical("Failed to start generator: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	appLogger.Info("Starting insert loop...")

	var total int
	for {
		select {
		case batch := <-batches:
			inserted, err := db.InsertTransactionsBulk(ctx, batch)
			if err != nil {
				appLogger.Error("Bulk insert failed: %v", err)
				continue
			}
			total += len(inserted)
			appLogger.Info("Inserted %d records (%d total)", len(inserted), total)

		case <-quit:
			appLogger.Info("Shutting down after %d records...", total)
			cancel()
			wg.Wait()
			return
		}
	}
}

// -----------------------------------------------------------------------------

func setupDatabase(conf *config.Config, appLogger *logger.Logger) interfaces.IDatabase {
	var db interfaces.IDatabase
	var err error

	switch conf.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(conf.MConfig, logger.NewLogger(conf.LogLevel, "PostgresDB"))
	default:
		db, err = storage.NewSQLiteDB(conf.MConfig, logger.NewLogger(conf.LogLevel, "SQLiteDB"))
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}

	err = helpers.RetryWithBackoff(context.Background(), appLogger, "database initialization",
		5, time.Second, db.Initialize)
	if err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	return db
}
