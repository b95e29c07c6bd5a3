package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Recurring-rule effectuation worker
	EffectuationInterval time.Duration

	// Forecast cache
	ForecastCacheSize int
	ForecastCacheTTL  time.Duration

	// Monte Carlo
	MonteCarloMaxTrials int
	MonteCarloWorkers   int
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8082"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/jurus.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "jurus"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "effectuated_transactions"),

		EffectuationInterval: getEnvDuration("EFFECTUATION_INTERVAL", 1*time.Hour),

		ForecastCacheSize: getEnvInt("FORECAST_CACHE_SIZE", 100),
		ForecastCacheTTL:  getEnvDuration("FORECAST_CACHE_TTL", 5*time.Minute),

		MonteCarloMaxTrials: getEnvInt("MONTECARLO_MAX_TRIALS", 10000),
		MonteCarloWorkers:   getEnvInt("MONTECARLO_WORKERS", 4),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.EffectuationInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid effectuation interval %v: must be at least 1 minute", c.EffectuationInterval))
	} else if c.EffectuationInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid effectuation interval %v: must be at most 24 hours", c.EffectuationInterval))
	}

	if c.ForecastCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid forecast cache size %d: must be at least 1", c.ForecastCacheSize))
	}
	if c.ForecastCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid forecast cache TTL %v: must be at least 1 second", c.ForecastCacheTTL))
	}

	if c.MonteCarloMaxTrials < 100 {
		errors = append(errors, fmt.Sprintf("invalid Monte Carlo trial cap %d: must be at least 100", c.MonteCarloMaxTrials))
	}
	if c.MonteCarloWorkers < 1 {
		errors = append(errors, fmt.Sprintf("invalid Monte Carlo worker count %d: must be at least 1", c.MonteCarloWorkers))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
