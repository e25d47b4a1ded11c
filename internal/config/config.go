package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Enrichment sources
	JustETFBaseURL    string
	YahooBaseURL      string
	ScrapeTimeout     time.Duration
	ScrapeSettleDelay time.Duration
	ScrapeItemDelay   time.Duration
	QuoteTimeout      time.Duration
	QuoteItemDelay    time.Duration

	// FX
	FXCacheTTL time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		JustETFBaseURL: getEnv("JUSTETF_BASE_URL", "https://www.justetf.com"),
		YahooBaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com/v10/finance/quoteSummary"),
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.ScrapeTimeout = getDuration("SCRAPE_TIMEOUT", 30*time.Second)
	config.ScrapeSettleDelay = getDuration("SCRAPE_SETTLE_DELAY", 3*time.Second)
	config.ScrapeItemDelay = getDuration("SCRAPE_ITEM_DELAY", 2*time.Second)
	config.QuoteTimeout = getDuration("QUOTE_TIMEOUT", 30*time.Second)
	config.QuoteItemDelay = getDuration("QUOTE_ITEM_DELAY", time.Second)
	config.FXCacheTTL = getDuration("FX_CACHE_TTL", 15*time.Minute)

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration environment variable, falling back to the
// default on missing or malformed values.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, value, defaultValue)
		return defaultValue
	}
	return d
}
