package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-observer/src/config"
	"sales-observer/src/helpers"
	"sales-observer/src/interfaces"
	"sales-observer/src/listener"
	"sales-observer/src/logger"
	"sales-observer/src/server"
	"sales-observer/src/stats"
	"sales-observer/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)

	// 1. Storage
	db, changeSource := setupDatabase(conf, appLogger)

	// 2. Stats pipeline: single-slot cache fronting the aggregation engine
	cache := stats.NewSnapshotCache(conf.Dashboard.ThrottleWindow(), conf.Dashboard.RetentionWindow())
	engine := stats.NewEngine(db, conf.Dashboard)
	statsSvc := stats.NewService(engine, cache, logger.NewLogger(conf.LogLevel, "Stats"))

	// 3. Broadcast hub + connection registry
	registry := server.NewRegistry()
	hub := server.NewHub(statsSvc, registry, conf.Dashboard, logger.NewLogger(conf.LogLevel, "Hub"))

	// 4. Change listener: invalidate cache + immediate push on every insert
	chg := listener.NewChangeListener(changeSource, cache, hub, logger.NewLogger(conf.LogLevel, "Listener"))

	// 5. HTTP server (CRUD REST + websocket endpoint)
	srv := server.NewDashboardServer(conf.MConfig, appLogger, db, hub)

	// Lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	go chg.Run(ctx)
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	if err := db.Close(); err != nil {
		appLogger.Warning("Failed to close database: %v", err)
	}
}

// -----------------------------------------------------------------------------

// setupDatabase initializes the configured store. Both backends double as
// the insert-notification source.
func setupDatabase(conf *config.Config, appLogger *logger.Logger) (interfaces.IDatabase, interfaces.IChangeSource) {
	var db interfaces.IDatabase
	var err error

	switch conf.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(conf.MConfig, logger.NewLogger(conf.LogLevel, "PostgresDB"))
	default:
		// Default to SQLite
		db, err = storage.NewSQLiteDB(conf.MConfig, logger.NewLogger(conf.LogLevel, "SQLiteDB"))
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}

	// The database may still be starting; retry before giving up.
	err = helpers.RetryWithBackoff(context.Background(), appLogger, "database initialization",
		5, time.Second, db.Initialize)
	if err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}

	changeSource, ok := db.(interfaces.IChangeSource)
	if !ok {
		appLogger.Critical("Storage backend %s does not expose a change stream", conf.Storage.DBType)
	}
	return db, changeSource
}
