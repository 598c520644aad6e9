package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tungdibui2609/saritaqr/internal/models"
)

// Support tool: dumps the local queue and cache state of a running (or
// crashed) agent straight from the embedded database.
func main() {
	dsn := "host=localhost user=postgres password=postgres dbname=saritaqr port=5433 sslmode=disable client_encoding=UTF8"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		fmt.Printf("❌ Failed to connect: %v\n", err)
		fmt.Println("\n💡 The agent must have run at least once:")
		fmt.Println("   go run ./cmd/agent")
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║          📊 Warehouse Agent Queue Report                  ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var pendingCount, confirmedCount, cacheCount int64
	db.Model(&models.PendingMutation{}).Where("synced_at IS NULL").Count(&pendingCount)
	db.Model(&models.PendingMutation{}).Where("synced_at IS NOT NULL").Count(&confirmedCount)
	db.Model(&models.CacheEntry{}).Count(&cacheCount)

	fmt.Println("📈 STATISTICS")
	fmt.Println("──────────────────────────────────────────────────────────")
	fmt.Printf("  Pending mutations:    %3d\n", pendingCount)
	fmt.Printf("  Confirmed (unpruned): %3d\n", confirmedCount)
	fmt.Printf("  Cache entries:        %3d\n", cacheCount)
	fmt.Println()

	if pendingCount > 0 {
		var pending []models.PendingMutation
		db.Where("synced_at IS NULL").Order("seq").Find(&pending)

		fmt.Println("📦 PENDING QUEUE (replay order)")
		fmt.Println("──────────────────────────────────────────────────────────")
		for _, m := range pending {
			icon := "📦"
			target := m.ToPos
			if m.Kind == models.MutationHallMove {
				icon = "🚚"
				if m.TargetWarehouse == models.AutoWarehouse {
					target = "hall (AUTO)"
				} else {
					target = fmt.Sprintf("hall K%d", m.TargetWarehouse)
				}
			}
			fmt.Printf("  %s #%d %s -> %s\n", icon, m.Seq, m.LotCode, target)
			fmt.Printf("      └─ queued %s", m.CreatedAt.Format("2006-01-02 15:04:05"))
			if m.Actor != "" {
				fmt.Printf(" by %s", m.Actor)
			}
			if m.WorkOrderID != "" {
				fmt.Printf(" (order %s)", m.WorkOrderID)
			}
			fmt.Println()
		}
		fmt.Println()
	}

	var entries []models.CacheEntry
	db.Order("key").Find(&entries)
	if len(entries) > 0 {
		fmt.Println("🗂  SNAPSHOT CACHES")
		fmt.Println("──────────────────────────────────────────────────────────")
		for _, e := range entries {
			if e.Key == models.CacheKeyCredentials {
				// never print the session blob
				fmt.Printf("  %-24s (sealed, %s old)\n", e.Key, age(e.UpdatedAt))
				continue
			}
			fmt.Printf("  %-24s %6d bytes, %s old\n", e.Key, len(e.Value), age(e.UpdatedAt))
		}
		fmt.Println()
	}

	if len(os.Args) > 1 && os.Args[1] == "--json" {
		var pending []models.PendingMutation
		db.Where("synced_at IS NULL").Order("seq").Find(&pending)
		data := map[string]interface{}{
			"stats": map[string]int64{
				"pending":   pendingCount,
				"confirmed": confirmedCount,
				"caches":    cacheCount,
			},
			"queue": pending,
		}
		jsonData, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println("📄 JSON EXPORT:")
		fmt.Println(string(jsonData))
	}

	fmt.Println("══════════════════════════════════════════════════════════")
}

func age(t time.Time) string {
	d := time.Since(t).Round(time.Minute)
	if d < time.Minute {
		return "under a minute"
	}
	return d.String()
}
