package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tungdibui2609/saritaqr/internal/buildinfo"
	"github.com/tungdibui2609/saritaqr/internal/config"
	"github.com/tungdibui2609/saritaqr/internal/database"
	"github.com/tungdibui2609/saritaqr/internal/events"
	"github.com/tungdibui2609/saritaqr/internal/handlers"
	"github.com/tungdibui2609/saritaqr/internal/models"
	"github.com/tungdibui2609/saritaqr/internal/offline"
	"github.com/tungdibui2609/saritaqr/internal/services/central"
	"github.com/tungdibui2609/saritaqr/internal/store"
	"github.com/tungdibui2609/saritaqr/internal/sync"
	"github.com/tungdibui2609/saritaqr/internal/utils"
)

func main() {
	if buildinfo.CommitHash != "" {
		log.Printf("Warehouse agent build %s (%s)", buildinfo.CommitHash, buildinfo.BuildTime)
	}

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (detects embedded vs external automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in the shutdown handler below

	// 3. Auto-migrate schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.PendingMutation{},
		&models.CacheEntry{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Local stores and session
	queue := store.NewGormMutationStore(db.DB)
	kv := store.NewGormKV(db.DB)
	creds := store.NewCredentialCache(kv, cfg.EncKey)

	deviceID, err := utils.DeviceID(kv)
	if err != nil {
		log.Fatalf("Failed to establish device identity: %v", err)
	}
	log.Printf("📱 Device %s", deviceID)

	// 5. Central server client
	client := central.New(central.Config{
		BaseURL:  cfg.Central.URL,
		Timeout:  cfg.Central.Timeout,
		DeviceID: deviceID,
	}, creds)

	// 6. Offline index and UI event hub
	index := offline.NewHolder(cfg.Warehouses)
	hub := events.NewHub()
	go hub.Run()

	// 7. Sync service
	syncCfg := config.LoadSyncSettings()
	agent := sync.NewService(queue, kv, creds, client, index, hub, sync.Config{
		Warehouses:       cfg.Warehouses,
		BatchSize:        syncCfg.BatchSize,
		BatchDelay:       time.Duration(syncCfg.BatchDelayMs) * time.Millisecond,
		LegacyMoveSync:   syncCfg.LegacyMoveSync,
		AutoSyncEnabled:  syncCfg.AutoSyncEnabled,
		AutoSyncInterval: time.Duration(syncCfg.AutoSyncInterval) * time.Second,
		SyncOnStartup:    syncCfg.SyncOnStartup,
		PruneAfter:       time.Duration(syncCfg.PruneAfterDays) * 24 * time.Hour,
		Operator:         cfg.Operator,
	})
	if err := agent.Start(); err != nil {
		log.Fatalf("Failed to start sync service: %v", err)
	}

	// 8. HTTP router
	router := handlers.NewRouter(handlers.Deps{
		Agent:   agent,
		Central: client,
		Creds:   creds,
		KV:      kv,
		Index:   index,
		Hub:     hub,
		Dedup:   utils.NewDeduplicator(5 * time.Second),
	})

	// 9. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Warehouse agent starting on port %s (central: %s)\n", cfg.Port, cfg.Central.URL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	agent.Stop()

	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
