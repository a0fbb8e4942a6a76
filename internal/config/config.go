package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all engine configuration loaded from the environment.
type Config struct {
	Port        string
	Environment string

	// Data locations
	DataDir      string
	DatabasePath string
	SettingsPath string
	SecretsPath  string
	TierCapsPath string

	// Remote model registry
	RegistryURL        string
	RegistryCacheTTL   time.Duration
	CatalogRefreshCron bool

	// Secret storage master key (64 hex chars). Empty disables secure storage.
	MasterKey string

	// Run history retention
	RunRetention time.Duration

	// Response cache TTL
	RunCacheTTL time.Duration
}

// Load reads configuration from the environment with sensible defaults for
// a localhost sidecar.
func Load() *Config {
	dataDir := getEnv("INKWELL_DATA_DIR", "./data")

	return &Config{
		Port:        getEnv("PORT", "8642"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DataDir:      dataDir,
		DatabasePath: getEnv("INKWELL_DB_PATH", dataDir+"/inkwell.db"),
		SettingsPath: getEnv("INKWELL_SETTINGS_PATH", dataDir+"/ai_settings.json"),
		SecretsPath:  getEnv("INKWELL_SECRETS_PATH", dataDir+"/secrets.enc.json"),
		TierCapsPath: getEnv("INKWELL_TIER_CAPS_PATH", ""),

		RegistryURL:        getEnv("INKWELL_REGISTRY_URL", ""),
		RegistryCacheTTL:   getTimeEnv("INKWELL_REGISTRY_CACHE_TTL", 7*24*time.Hour),
		CatalogRefreshCron: getBoolEnv("INKWELL_CATALOG_REFRESH_JOB", true),

		MasterKey: getEnv("INKWELL_MASTER_KEY", ""),

		RunRetention: getTimeEnv("INKWELL_RUN_RETENTION", 30*24*time.Hour),
		RunCacheTTL:  getTimeEnv("INKWELL_RUN_CACHE_TTL", 15*time.Minute),
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getTimeEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
