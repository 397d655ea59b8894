package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for board documents.
const (
	StorageSQL   = "sql"
	StorageAzure = "azure"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Database
	DatabaseURL string
	SQLitePath  string

	// Board storage
	BoardStorage                string
	AzureTablesConnectionString string
	AzureBoardTable             string

	// Redis
	RedisURL      string
	BoardCacheTTL time.Duration

	// Event forwarding
	RabbitMQURL                string
	AzureQueueConnectionString string
	AzureBoardQueue            string

	// Servers
	HTTPAddr         string
	WorkerHealthAddr string
	MCPAddr          string
	MCPAuthToken     string

	// Households
	Timezone       string
	HouseholdsFile string
	Households     []Household
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("CHOREBOARD_SQLITE_PATH", ""),

		BoardStorage:                strings.ToLower(getEnv("BOARD_STORAGE", StorageSQL)),
		AzureTablesConnectionString: getEnv("AZURE_TABLES_CONNECTION_STRING", ""),
		AzureBoardTable:             getEnv("AZURE_BOARD_TABLE", "choreboards"),

		RedisURL:      getEnv("REDIS_URL", ""),
		BoardCacheTTL: getDurationEnv("BOARD_CACHE_TTL", 10*time.Minute),

		RabbitMQURL:                getEnv("RABBITMQ_URL", ""),
		AzureQueueConnectionString: getEnv("AZURE_QUEUE_CONNECTION_STRING", ""),
		AzureBoardQueue:            getEnv("AZURE_BOARD_QUEUE", "board-updates"),

		HTTPAddr:         getEnv("HTTP_ADDR", "0.0.0.0:8080"),
		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
		MCPAddr:          getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken:     getEnv("MCP_AUTH_TOKEN", ""),

		Timezone:       getEnv("CHOREBOARD_TIMEZONE", "Local"),
		HouseholdsFile: getEnv("CHOREBOARD_HOUSEHOLDS_FILE", ""),
	}

	households, err := loadHouseholds(cfg.HouseholdsFile, cfg.Timezone)
	if err != nil {
		return nil, err
	}
	cfg.Households = households

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks combinations of settings that cannot work.
func (c *Config) Validate() error {
	switch c.BoardStorage {
	case StorageSQL:
	case StorageAzure:
		if c.AzureTablesConnectionString == "" {
			return errors.New("BOARD_STORAGE=azure requires AZURE_TABLES_CONNECTION_STRING")
		}
	default:
		return fmt.Errorf("unknown BOARD_STORAGE %q", c.BoardStorage)
	}
	if len(c.Households) == 0 {
		return errors.New("no households configured")
	}
	seen := make(map[string]bool, len(c.Households))
	for _, h := range c.Households {
		if seen[h.ID] {
			return fmt.Errorf("household %q configured twice", h.ID)
		}
		seen[h.ID] = true
		if _, err := h.Location(); err != nil {
			return fmt.Errorf("household %s: %w", h.ID, err)
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesSQLite reports whether boards go to the local SQLite file.
func (c *Config) UsesSQLite() bool {
	return c.BoardStorage == StorageSQL && c.DatabaseURL == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	items := splitList(os.Getenv(key))
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// splitList splits a comma separated value and drops blank items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
