package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all agent configuration
type Config struct {
	Port       string
	EncKey     string
	Operator   string
	Warehouses []int
	Central    CentralConfig
	Database   DatabaseConfig
}

// CentralConfig points the agent at the central warehouse server
type CentralConfig struct {
	URL     string
	Timeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Verbose  bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	encKey := os.Getenv("ENC_KEY")
	if encKey == "" {
		return nil, fmt.Errorf("ENC_KEY is required (it protects the stored session)")
	}
	centralURL := os.Getenv("CENTRAL_SERVER_URL")
	if centralURL == "" {
		return nil, fmt.Errorf("CENTRAL_SERVER_URL is required")
	}

	return &Config{
		Port:       getEnv("AGENT_PORT", "8990"),
		EncKey:     encKey,
		Operator:   os.Getenv("AGENT_OPERATOR"),
		Warehouses: parseWarehouses(getEnv("WAREHOUSES", "1,2,3")),
		Central: CentralConfig{
			URL:     centralURL,
			Timeout: time.Duration(getIntEnv("CENTRAL_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "saritaqr"),
			Verbose:  getBoolEnv("DB_VERBOSE", false),
		},
	}, nil
}

// parseWarehouses reads the fleet list from its comma-separated form.
// Unparseable entries are skipped, not fatal: a typo in one warehouse must
// not keep the scanner from starting its shift.
func parseWarehouses(raw string) []int {
	var fleet []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			log.Printf("⚠️ Ignoring warehouse %q in WAREHOUSES", part)
			continue
		}
		fleet = append(fleet, id)
	}
	return fleet
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
