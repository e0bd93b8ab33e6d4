package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// Service
	ServiceName     string `toml:"service_name"`
	APIPort         int    `toml:"api_port"`
	APIKey          string `toml:"api_key"`
	CORSAllowOrigin string `toml:"cors_allow_origin"`
	LogLevel        string `toml:"log_level"`
	WebhookURL      string `toml:"webhook_url"`

	// Database
	DatabaseURL string `toml:"database_url"`
	DBHost      string `toml:"db_host"`
	DBPort      int    `toml:"db_port"`
	DBName      string `toml:"db_name"`
	DBUser      string `toml:"db_user"`
	DBPassword  string `toml:"db_password"`

	// Seed data
	SeedDataDir string `toml:"seed_data_dir"`
	SeedOnStart bool   `toml:"seed_on_start"`

	// Providers
	AlphaVantageAPIKey        string        `toml:"alphavantage_api_key"`
	AlphaVantageRatePerMinute int           `toml:"alphavantage_rate_per_minute"`
	IEXPublishableToken       string        `toml:"iex_publishable_token"`
	IEXSecretToken            string        `toml:"iex_secret_token"`
	QuandlAPIKey              string        `toml:"quandl_api_key"`
	ProviderTimeout           time.Duration `toml:"-"`
	ProviderMaxAttempts       int           `toml:"provider_max_attempts"`

	// Cache
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	CacheTTL      time.Duration `toml:"-"`

	// Price sync
	PriceSyncEnabled bool   `toml:"price_sync_enabled"`
	PriceSyncCron    string `toml:"price_sync_cron"`
}

func defaults() *Config {
	return &Config{
		ServiceName:               "quantdata",
		APIPort:                   5000,
		CORSAllowOrigin:           "*",
		LogLevel:                  "info",
		DBHost:                    "localhost",
		DBPort:                    5432,
		DBName:                    "stocks",
		SeedDataDir:               "DbData",
		SeedOnStart:               true,
		AlphaVantageRatePerMinute: 5,
		ProviderTimeout:           30 * time.Second,
		ProviderMaxAttempts:       1,
		CacheTTL:                  15 * time.Minute,
		PriceSyncCron:             "30 22 * * 1-5",
	}
}

// Load builds the config from defaults, then the optional TOML file named by
// CONFIG_FILE, then .env and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.ServiceName = envStr("SERVICE_NAME", c.ServiceName)
	c.APIPort = envInt("API_PORT", c.APIPort)
	c.APIKey = envStr("API_KEY", c.APIKey)
	c.CORSAllowOrigin = envStr("CORS_ALLOW_ORIGIN", c.CORSAllowOrigin)
	c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)
	c.WebhookURL = envStr("WEBHOOK_URL", c.WebhookURL)

	c.DatabaseURL = envStr("DATABASE_URL", c.DatabaseURL)
	c.DBHost = envStr("DB_HOST", c.DBHost)
	c.DBPort = envInt("DB_PORT", c.DBPort)
	c.DBName = envStr("DB_NAME", c.DBName)
	c.DBUser = envStr("DB_USER", c.DBUser)
	c.DBPassword = envStr("DB_PASSWORD", c.DBPassword)

	c.SeedDataDir = envStr("SEED_DATA_DIR", c.SeedDataDir)
	c.SeedOnStart = envBool("SEED_ON_START", c.SeedOnStart)

	c.AlphaVantageAPIKey = envStr("ALPHAVANTAGE_API_KEY", c.AlphaVantageAPIKey)
	c.AlphaVantageRatePerMinute = envInt("ALPHAVANTAGE_RATE_PER_MINUTE", c.AlphaVantageRatePerMinute)
	c.IEXPublishableToken = envStr("IEX_PUBLISHABLE_TOKEN", c.IEXPublishableToken)
	c.IEXSecretToken = envStr("IEX_SECRET_TOKEN", c.IEXSecretToken)
	c.QuandlAPIKey = envStr("QUANDL_API_KEY", c.QuandlAPIKey)
	c.ProviderTimeout = envDuration("PROVIDER_TIMEOUT", c.ProviderTimeout)
	c.ProviderMaxAttempts = envInt("PROVIDER_MAX_ATTEMPTS", c.ProviderMaxAttempts)

	c.RedisAddr = envStr("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envStr("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envInt("REDIS_DB", c.RedisDB)
	c.CacheTTL = envDuration("CACHE_TTL", c.CacheTTL)

	c.PriceSyncEnabled = envBool("PRICE_SYNC_ENABLED", c.PriceSyncEnabled)
	c.PriceSyncCron = envStr("PRICE_SYNC_CRON", c.PriceSyncCron)
}

func (c *Config) Validate() error {
	var errs []string

	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Sprintf("API_PORT %d is out of range", c.APIPort))
	}
	if c.DatabaseURL == "" && c.DBUser == "" {
		errs = append(errs, "DATABASE_URL or DB_USER is required")
	}
	if c.ProviderMaxAttempts < 1 {
		errs = append(errs, "PROVIDER_MAX_ATTEMPTS must be at least 1")
	}
	if c.AlphaVantageRatePerMinute < 1 {
		errs = append(errs, "ALPHAVANTAGE_RATE_PER_MINUTE must be at least 1")
	}
	if c.PriceSyncEnabled && c.PriceSyncCron == "" {
		errs = append(errs, "PRICE_SYNC_CRON is required when PRICE_SYNC_ENABLED=true")
	}
	if c.PriceSyncEnabled && c.AlphaVantageAPIKey == "" {
		errs = append(errs, "ALPHAVANTAGE_API_KEY is required when PRICE_SYNC_ENABLED=true")
	}

	if c.AlphaVantageAPIKey == "" {
		fmt.Println("[WARN] ALPHAVANTAGE_API_KEY not set, AlphaVantage endpoints will report an invalid key")
	}
	if c.IEXPublishableToken == "" {
		fmt.Println("[WARN] IEX_PUBLISHABLE_TOKEN not set, IEX endpoints will return empty data")
	}
	if c.QuandlAPIKey == "" {
		fmt.Println("[WARN] QUANDL_API_KEY not set, Quandl requests are anonymous and heavily throttled")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set, REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Market Data Service Configuration ===")
	fmt.Printf("Service: %s (port %d, log level %s)\n", c.ServiceName, c.APIPort, c.LogLevel)
	fmt.Println("--------------------------------------")
	fmt.Printf("Database: %s\n", c.redactedDSN())
	fmt.Printf("Seed: %s (on start: %v)\n", c.SeedDataDir, c.SeedOnStart)
	fmt.Println("--------------------------------------")
	fmt.Println("Providers:")
	fmt.Printf("  AlphaVantage: %s (%d req/min)\n", boolLabel(c.AlphaVantageAPIKey != "", "configured", "not set"), c.AlphaVantageRatePerMinute)
	fmt.Printf("  IEX: %s\n", boolLabel(c.IEXPublishableToken != "", "configured", "not set"))
	fmt.Printf("  Quandl: %s\n", boolLabel(c.QuandlAPIKey != "", "configured", "anonymous"))
	fmt.Printf("  Timeout: %s, attempts: %d\n", c.ProviderTimeout, c.ProviderMaxAttempts)
	fmt.Printf("  Cache: %s\n", boolLabel(c.RedisAddr != "", "redis "+c.RedisAddr+" ttl "+c.CacheTTL.String(), "disabled"))
	fmt.Printf("  Price sync: %s\n", boolLabel(c.PriceSyncEnabled, "enabled ("+c.PriceSyncCron+")", "disabled"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) redactedDSN() string {
	if c.DatabaseURL != "" {
		return "DATABASE_URL (set)"
	}
	return fmt.Sprintf("%s@%s:%d/%s", c.DBUser, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
