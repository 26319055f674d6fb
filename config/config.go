package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/skinpricer/pkg/errors"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	// Redis stream publishing; empty RedisAddr disables it
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Quote cache; empty MemcacheAddr disables it
	MemcacheAddr string
	QuoteTTL     time.Duration

	// Marketplace
	MarketBaseURL string
	SelectorsFile string

	// Page fetching
	FetchMode         string
	BrowserBin        string
	BrowserHeadless   bool
	BrowserSessions   int
	SettleDelay       time.Duration
	NavigationTimeout time.Duration

	// Batch runs
	Workers         int
	ItemsFile       string
	RepriceSchedule string
	FailureLog      string

	// Quote history; empty DatabaseURL disables it
	DatabaseURL string

	Debug       bool
	Environment string
}

// Load reads a .env file if present, then loads the configuration
func Load() *Config {
	_ = godotenv.Load()
	return LoadConfig()
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		RedisAddr:            getOptional("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "skinpricer:quotes"),
		RedisStreamCount:     getInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getInt("REDIS_STREAM_MAX_LENGTH", 10000),
		MemcacheAddr:         getOptional("MEMCACHE_ADDR", "localhost:11211"),
		QuoteTTL:             time.Duration(getInt("QUOTE_TTL_SECONDS", 900)) * time.Second,
		MarketBaseURL:        getEnv("MARKET_BASE_URL", "https://pricempire.com/cs2-items"),
		SelectorsFile:        getEnv("SELECTORS_FILE", ""),
		FetchMode:            strings.ToLower(getEnv("FETCH_MODE", "browser")),
		BrowserBin:           getEnv("BROWSER_BIN", ""),
		BrowserHeadless:      getBool("BROWSER_HEADLESS", true),
		BrowserSessions:      getInt("BROWSER_SESSIONS", 6),
		SettleDelay:          time.Duration(getInt("SETTLE_DELAY_MS", 1000)) * time.Millisecond,
		NavigationTimeout:    time.Duration(getInt("NAVIGATION_TIMEOUT_SECONDS", 45)) * time.Second,
		Workers:              getInt("WORKERS", 6),
		ItemsFile:            getEnv("ITEMS_FILE", ""),
		RepriceSchedule:      getEnv("REPRICE_SCHEDULE", ""),
		FailureLog:           getEnv("FAILURE_LOG", "unresolved.log"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		Debug:                getBool("DEBUG", false),
		Environment:          getEnv("SKINPRICER_ENVIRONMENT", "development"),
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.FetchMode != "browser" && c.FetchMode != "http" {
		return apperrors.NewConfiguration("FETCH_MODE must be browser or http, got "+c.FetchMode, nil)
	}
	if c.Workers <= 0 {
		return apperrors.NewConfiguration("WORKERS must be positive", nil)
	}
	if c.BrowserSessions <= 0 {
		return apperrors.NewConfiguration("BROWSER_SESSIONS must be positive", nil)
	}
	if c.SettleDelay < 0 {
		return apperrors.NewConfiguration("SETTLE_DELAY_MS must not be negative", nil)
	}
	if c.NavigationTimeout <= 0 {
		return apperrors.NewConfiguration("NAVIGATION_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.RedisStreamCount <= 0 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be positive", nil)
	}

	u, err := url.Parse(c.MarketBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.NewConfiguration("MARKET_BASE_URL must be an absolute URL", err)
	}

	if c.RepriceSchedule != "" {
		if _, err := cron.ParseStandard(c.RepriceSchedule); err != nil {
			return apperrors.NewConfiguration("REPRICE_SCHEDULE is not a valid cron spec", err)
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getOptional is like getEnv, but a variable set to "" stays empty so the
// backing service can be switched off.
func getOptional(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
