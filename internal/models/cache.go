package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// CacheEntry is one named JSON blob in the local snapshot cache. Entries are
// replaced whole on download; there is no partial update.
type CacheEntry struct {
	Key       string         `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     datatypes.JSON `gorm:"type:jsonb" json:"value"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// TableName specifies the table name
func (CacheEntry) TableName() string {
	return "cache_entries"
}

// Named caches. The key set is a compatibility surface: queue dumps and
// support tooling address entries by these names.
const (
	CacheKeyCredentials     = "credentials"
	CacheKeyDeviceID        = "device_id"
	CacheKeyLastSyncAt      = "last_sync_at"
	CacheKeyOccupied        = "occupied_positions"
	CacheKeyStaticLocations = "static_locations"
	CacheKeyExportOrders    = "export_orders"
	CacheKeyColorPrefs      = "color_prefs"
)

// CacheKeyWarehouseStatus names the per-warehouse status snapshot.
func CacheKeyWarehouseStatus(warehouseID int) string {
	return fmt.Sprintf("warehouse_status_%d", warehouseID)
}
