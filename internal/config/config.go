package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP Server
	Port string

	// Shared secret gating write and query endpoints. Empty disables
	// the gate (local development).
	AccessCode string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Outbound notification webhook consumed by the worker.
	WebhookURL string

	// Forecast horizon and scheduled-event lookback, in days.
	ForecastDays int
	LookbackDays int
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		AccessCode:   getEnv("ACCESS_CODE", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/cashflow.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cashflow"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		WebhookURL: getEnv("WEBHOOK_URL", ""),

		ForecastDays: getEnvInt("FORECAST_DAYS", 90),
		LookbackDays: getEnvInt("LOOKBACK_DAYS", 30),
	}
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.WebhookURL != "" {
		if parsed, err := url.Parse(c.WebhookURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid webhook URL '%s': %v", c.WebhookURL, err))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid webhook URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
	}

	if c.ForecastDays < 1 {
		errs = append(errs, fmt.Sprintf("invalid forecast horizon %d: must be at least 1 day", c.ForecastDays))
	} else if c.ForecastDays > 366 {
		errs = append(errs, fmt.Sprintf("invalid forecast horizon %d: must be at most 366 days", c.ForecastDays))
	}

	if c.LookbackDays < 1 {
		errs = append(errs, fmt.Sprintf("invalid lookback %d: must be at least 1 day", c.LookbackDays))
	} else if c.LookbackDays > 180 {
		errs = append(errs, fmt.Sprintf("invalid lookback %d: must be at most 180 days", c.LookbackDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
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
