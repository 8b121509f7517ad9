package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends accepted by CACHE_BACKEND
const (
	CacheBackendFile     = "file"
	CacheBackendMemory   = "memory"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
	CacheBackendSQLite   = "sqlite"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Price cache
	Cache CacheConfig

	// Database (postgres cache backend)
	Database DatabaseConfig

	// Redis (redis cache backend)
	Redis RedisConfig

	// Remote price feed
	Feed FeedConfig

	// Analytics defaults
	Analytics AnalyticsConfig

	// Cache warm job
	Warm WarmConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// CacheConfig holds price cache configuration
type CacheConfig struct {
	Backend    string // file, memory, redis, postgres, sqlite
	Dir        string // file backend
	SQLitePath string // sqlite backend
	Days       int    // 캐시 유효기간 (일)
	PruneDays  int    // 이보다 오래된 항목은 cache_prune 작업이 삭제
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FeedConfig holds the remote price feed configuration
type FeedConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
}

// AnalyticsConfig holds metric defaults used when a run does not override them
type AnalyticsConfig struct {
	OutputDir      string
	RollingWindow  int
	RiskFreeRate   float64 // 연율 무위험 수익률 (예: 0.03)
	InitialCapital float64
	DataDir        string // API CSV inputs resolve under this directory, empty disables them
}

// WarmConfig holds the scheduled cache warm job configuration
type WarmConfig struct {
	Schedule string
	Tickers  []string
	Start    string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Cache: CacheConfig{
			Backend:    strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendFile)),
			Dir:        getEnv("CACHE_DIR", filepath.Join("portfolio", "cache")),
			SQLitePath: getEnv("SQLITE_PATH", "analytics_cache.db"),
			Days:       getEnvAsInt("CACHE_DAYS", 3),
			PruneDays:  getEnvAsInt("CACHE_PRUNE_DAYS", 30),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Feed: FeedConfig{
			BaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:   getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			RateLimit: getEnvAsFloat("FEED_RATE_LIMIT", 2),
		},

		Analytics: AnalyticsConfig{
			OutputDir:      getEnv("OUTPUT_DIR", "output"),
			RollingWindow:  getEnvAsInt("ROLLING_WINDOW", 63),
			RiskFreeRate:   getEnvAsFloat("RISK_FREE_RATE", 0),
			InitialCapital: getEnvAsFloat("INITIAL_CAPITAL", 1.0),
			DataDir:        getEnv("ANALYTICS_DATA_DIR", ""),
		},

		Warm: WarmConfig{
			Schedule: getEnv("WARM_SCHEDULE", "0 30 18 * * 1-5"),
			Tickers:  getEnvAsList("WARM_TICKERS", []string{"SPY"}),
			Start:    getEnv("WARM_START", "2022-01-01"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendMemory, CacheBackendSQLite:
	case CacheBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("REDIS_ENABLED=true is required for the redis cache backend")
		}
	case CacheBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres cache backend")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: file, memory, redis, postgres, sqlite")
	}

	if c.Cache.Days < 0 {
		return fmt.Errorf("CACHE_DAYS must be >= 0")
	}
	if c.Cache.PruneDays < c.Cache.Days {
		return fmt.Errorf("CACHE_PRUNE_DAYS must be >= CACHE_DAYS")
	}
	if c.Analytics.RollingWindow < 2 {
		return fmt.Errorf("ROLLING_WINDOW must be >= 2")
	}
	if c.Analytics.InitialCapital <= 0 {
		return fmt.Errorf("INITIAL_CAPITAL must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, strings.ToUpper(item))
		}
	}
	return items
}
