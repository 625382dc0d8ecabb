package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Servers
	HTTPAddr string
	GRPCAddr string

	// Wheel catalog
	WheelConfigDir string
	WatchInterval  time.Duration

	// Wallet
	StartingCoins int

	// Logging
	LogLevel string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// Load reads envFile (if present) into the environment and builds a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr: getEnv("GRPC_ADDR", ":9090"),

		WheelConfigDir: getEnv("WHEEL_CONFIG_DIR", "./config"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "reward.events"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "wheel.spin.resolved"),
	}

	var errs []string
	var err error
	if cfg.WatchInterval, err = getEnvDuration("WATCH_INTERVAL", 2*time.Second); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.StartingCoins, err = getEnvInt("STARTING_COINS", 120); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if c.HTTPAddr == "" {
		errs = append(errs, "HTTP_ADDR cannot be empty")
	}
	if c.GRPCAddr == "" {
		errs = append(errs, "GRPC_ADDR cannot be empty")
	}
	if c.WheelConfigDir == "" {
		errs = append(errs, "WHEEL_CONFIG_DIR cannot be empty")
	}
	if c.WatchInterval < 0 {
		errs = append(errs, "WATCH_INTERVAL must be >= 0 (0 disables hot reload)")
	}
	if c.StartingCoins < 0 {
		errs = append(errs, "STARTING_COINS must be >= 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL '%s'", c.LogLevel))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
