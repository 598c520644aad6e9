package main

import (
	"fmt"
	"log"

	"github.com/tungdibui2609/saritaqr/internal/config"
	"github.com/tungdibui2609/saritaqr/internal/database"
	"github.com/tungdibui2609/saritaqr/internal/location"
	"github.com/tungdibui2609/saritaqr/internal/models"
	"github.com/tungdibui2609/saritaqr/internal/services/central"
	"github.com/tungdibui2609/saritaqr/internal/store"
)

// Seeds the snapshot caches with a small demo warehouse, so slot allocation
// and offline lookups work before the agent has ever reached a central
// server. Real snapshots from the first download replace all of it.
func main() {
	fmt.Println("🌱 Warehouse Agent Demo Seeder")
	fmt.Println("============================================================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	fmt.Println("🔨 Running database migrations...")
	if err := db.AutoMigrate(&models.PendingMutation{}, &models.CacheEntry{}); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")
	fmt.Println()

	kv := store.NewGormKV(db.DB)

	var existing []string
	if ok, _ := kv.Get(models.CacheKeyStaticLocations, &existing); ok && len(existing) > 0 {
		fmt.Printf("⚠️  Cache already holds %d static locations. Overwrite? (y/N): ", len(existing))
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Caches not modified.")
			return
		}
	}

	// Warehouse 1: two shelf rows in zone A, three levels, four pallet
	// slots each, plus the staging hall.
	fmt.Println("📍 Building demo slot grid...")
	var locations []string
	for row := 1; row <= 2; row++ {
		for level := 1; level <= 3; level++ {
			for pos := 1; pos <= 4; pos++ {
				locations = append(locations, location.Encode(location.Slot{
					Warehouse: 1,
					Zone:      location.ZoneA,
					Row:       row,
					Level:     level,
					Pos:       pos,
				}))
			}
		}
	}
	if err := kv.Put(models.CacheKeyStaticLocations, locations); err != nil {
		log.Fatalf("❌ Seeding static locations: %v", err)
	}
	fmt.Printf("✅ %d static locations (%s .. %s)\n", len(locations), locations[0], locations[len(locations)-1])

	// A few slots start occupied so allocation has something to skip.
	occupied := []central.OccupiedPosition{
		{PosCode: "A-K1D1T1.PL1", LotCode: "DEMO-LOT-1"},
		{PosCode: "A-K1D1T1.PL2", LotCode: "DEMO-LOT-2"},
		{PosCode: "S-K1.PL1", LotCode: "DEMO-LOT-3"},
	}
	if err := kv.Put(models.CacheKeyOccupied, occupied); err != nil {
		log.Fatalf("❌ Seeding occupancy: %v", err)
	}
	fmt.Printf("✅ %d occupied slots\n", len(occupied))

	fmt.Println()
	fmt.Println("══════════════════════════════════════════════════════════")
	fmt.Println("✨ Demo caches in place. The agent can allocate offline now.")
	fmt.Println()
	fmt.Println("🚀 Start the agent:")
	fmt.Println("   go run ./cmd/agent")
	fmt.Printf("   Then visit: http://localhost:%s/api/status\n", cfg.Port)
	fmt.Println("══════════════════════════════════════════════════════════")
}
