package config

import (
	"encoding/json"
	"os"
)

// SyncSettings tunes the queue replay. Sites override them per device with a
// JSON file; everything has a working default.
type SyncSettings struct {
	// ============ SCHEDULING ============
	AutoSyncEnabled  bool `json:"auto_sync_enabled"`
	AutoSyncInterval int  `json:"auto_sync_interval"` // seconds
	SyncOnStartup    bool `json:"sync_on_startup"`

	// ============ PACING ============
	BatchSize    int `json:"batch_size"`
	BatchDelayMs int `json:"batch_delay_ms"`

	// ============ COMPATIBILITY ============
	// LegacyMoveSync routes moves through the old work/sync batch endpoint
	// for central servers that predate positions/move.
	LegacyMoveSync bool `json:"legacy_move_sync"`

	// ============ HOUSEKEEPING ============
	PruneAfterDays int `json:"prune_after_days"`
}

// LoadSyncSettings loads sync settings from file or environment
func LoadSyncSettings() *SyncSettings {
	// Try to load from file first
	if configPath := os.Getenv("SYNC_CONFIG_PATH"); configPath != "" {
		if cfg, err := loadSyncSettingsFromFile(configPath); err == nil {
			return cfg
		}
	}

	// Otherwise use defaults
	return &SyncSettings{
		AutoSyncEnabled:  getBoolEnv("SYNC_AUTO_ENABLED", true),
		AutoSyncInterval: getIntEnv("SYNC_AUTO_INTERVAL", 300),
		SyncOnStartup:    getBoolEnv("SYNC_ON_STARTUP", true),
		BatchSize:        getIntEnv("SYNC_BATCH_SIZE", 5),
		BatchDelayMs:     getIntEnv("SYNC_BATCH_DELAY_MS", 500),
		LegacyMoveSync:   getBoolEnv("SYNC_LEGACY_MOVES", false),
		PruneAfterDays:   getIntEnv("SYNC_PRUNE_DAYS", 30),
	}
}

// loadSyncSettingsFromFile loads sync settings from JSON file
func loadSyncSettingsFromFile(path string) (*SyncSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg SyncSettings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
