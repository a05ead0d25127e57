package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backend names accepted by STORAGE.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

type Config struct {
	Addr              string
	Storage           string
	DBPath            string
	BadgeFilePath     string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisPrefix       string
	CatalogPath       string
	LogLevel          string
	LogFile           string
	ReplayWorkerCount int
	ReplayQueueSize   int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		Storage:           strings.ToLower(envOr("STORAGE", StorageSQLite)),
		DBPath:            envOr("DB_PATH", "file:badges.db"),
		BadgeFilePath:     envOr("BADGE_FILE_PATH", "badges.json"),
		RedisAddr:         envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           envIntOr("REDIS_DB", 0),
		RedisPrefix:       envOr("REDIS_PREFIX", "badges:"),
		CatalogPath:       os.Getenv("CATALOG_PATH"),
		LogLevel:          envOr("LOG_LEVEL", "INFO"),
		LogFile:           os.Getenv("LOG_FILE"),
		ReplayWorkerCount: envIntOr("REPLAY_WORKER_COUNT", 4),
		ReplayQueueSize:   envIntOr("REPLAY_QUEUE_SIZE", 64),
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	switch c.Storage {
	case StorageMemory:
	case StorageFile:
		if c.BadgeFilePath == "" {
			return fmt.Errorf("BADGE_FILE_PATH cannot be empty when STORAGE=file")
		}
	case StorageSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty when STORAGE=sqlite")
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty when STORAGE=redis")
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("REDIS_DB must be >= 0, got %d", c.RedisDB)
		}
	default:
		return fmt.Errorf("STORAGE must be one of memory, file, sqlite, redis; got %q", c.Storage)
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.LogLevel)
	}
	if c.ReplayWorkerCount <= 0 {
		return fmt.Errorf("REPLAY_WORKER_COUNT must be > 0, got %d", c.ReplayWorkerCount)
	}
	if c.ReplayQueueSize <= 0 {
		return fmt.Errorf("REPLAY_QUEUE_SIZE must be > 0, got %d", c.ReplayQueueSize)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
