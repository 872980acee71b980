package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Currency
	HomeCurrency    string
	RateProviderURL string
	RateTimeout     time.Duration
	RateCacheTTL    time.Duration

	// Categorization
	RulesFile string

	// Anomaly detection
	AnomalyPeriods    int
	AnomalyMultiplier float64

	// Subscription detection
	SubscriptionMinOccurrences  int
	SubscriptionAmountTolerance float64

	// Amount heuristic cutoffs. Low-confidence signals, tunable per deployment.
	HeuristicSmallAmount float64
	HeuristicLargeAmount float64

	// Auth
	JWTSecret        string
	JWTExpirationDur time.Duration
	APIKeyHash       string
	PipelineAPIKey   string
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

		HomeCurrency:    getEnv("HOME_CURRENCY", "EUR"),
		RateProviderURL: getEnv("RATE_PROVIDER_URL", "https://api.frankfurter.app"),
		RateTimeout:     getDuration("RATE_TIMEOUT", 10*time.Second),
		RateCacheTTL:    getDuration("RATE_CACHE_TTL", 24*time.Hour),

		RulesFile: getEnv("RULES_FILE", ""),

		AnomalyPeriods:    getInt("ANOMALY_PERIODS", 6),
		AnomalyMultiplier: getFloat("ANOMALY_MULTIPLIER", 2.0),

		SubscriptionMinOccurrences:  getInt("SUBSCRIPTION_MIN_OCCURRENCES", 2),
		SubscriptionAmountTolerance: getFloat("SUBSCRIPTION_AMOUNT_TOLERANCE", 0.05),

		HeuristicSmallAmount: getFloat("HEURISTIC_SMALL_AMOUNT", 5),
		HeuristicLargeAmount: getFloat("HEURISTIC_LARGE_AMOUNT", 1000),

		JWTSecret:        getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTExpirationDur: getDuration("JWT_EXPIRES_IN", 24*time.Hour),
		APIKeyHash:       getEnv("API_KEY_HASH", ""),
		PipelineAPIKey:   getEnv("PIPELINE_API_KEY", ""),
	}

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

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %g\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
