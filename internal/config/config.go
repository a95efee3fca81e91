package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"crowd-router/internal/database"
	"crowd-router/internal/provider"
	"crowd-router/internal/routing"
	"crowd-router/internal/sqlite"
)

// DefaultCacheFile as ROUTE_CACHE_PATH selects the cache file under the user's home
const DefaultCacheFile = "default"

// Config holds the process configuration
type Config struct {
	Addr            string        // e.g., "127.0.0.1:8080" or "127.0.0.1:0" for random port
	OSRMBaseURL     string        // OSRM server root
	ProviderTimeout time.Duration // HTTP timeout for one OSRM request
	BranchTimeout   time.Duration // upper bound for one candidate branch
	CachePath       string        // SQLite route cache file, or ":memory:"
	CacheTTL        time.Duration // 0 keeps cached routes forever
}

// Default returns the configuration used when no environment is set
func Default() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		OSRMBaseURL:     provider.DefaultBaseURL,
		ProviderTimeout: 30 * time.Second,
		BranchTimeout:   routing.DefaultBranchTimeout,
		CachePath:       sqlite.MemoryPath,
		CacheTTL:        24 * time.Hour,
	}
}

// Load reads envFile (if present) and then the environment.
// A missing file is ignored; a malformed one is an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Default(), fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables over Default
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.Addr = getEnv("SERVER_ADDR", cfg.Addr)
	cfg.OSRMBaseURL = getEnv("OSRM_BASE_URL", cfg.OSRMBaseURL)
	cfg.CachePath = getEnv("ROUTE_CACHE_PATH", cfg.CachePath)

	var err error
	if cfg.CachePath == DefaultCacheFile {
		if cfg.CachePath, err = database.GetDefaultCachePath(); err != nil {
			return cfg, err
		}
	}
	if cfg.ProviderTimeout, err = getDuration("PROVIDER_TIMEOUT", cfg.ProviderTimeout); err != nil {
		return cfg, err
	}
	if cfg.BranchTimeout, err = getDuration("BRANCH_TIMEOUT", cfg.BranchTimeout); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = getDuration("ROUTE_CACHE_TTL", cfg.CacheTTL); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d < 0 {
		return defaultValue, fmt.Errorf("invalid %s %q: must not be negative", key, value)
	}
	return d, nil
}
