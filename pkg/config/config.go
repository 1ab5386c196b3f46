package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultEndpoint    = "http://apiconnector.com/api.asmx"
	DefaultHTTPTimeout = 30 * time.Second
)

type Config struct {
	Username     string
	Password     string
	Endpoint     string
	HTTPTimeout  time.Duration
	HTTPMaxTries uint
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Username:     os.Getenv("DOTMAILER_USERNAME"),
		Password:     os.Getenv("DOTMAILER_PASSWORD"),
		Endpoint:     os.Getenv("DOTMAILER_ENDPOINT"),
		HTTPTimeout:  DefaultHTTPTimeout,
		HTTPMaxTries: 1,
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	if v := os.Getenv("DOTMAILER_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DOTMAILER_HTTP_TIMEOUT is invalid: %w", err)
		}
		cfg.HTTPTimeout = d
	}

	if v := os.Getenv("DOTMAILER_HTTP_MAX_TRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("DOTMAILER_HTTP_MAX_TRIES is invalid: %w", err)
		}
		cfg.HTTPMaxTries = uint(n)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	// Either credential may be blank on its own; the service decides.
	if c.Username == "" && c.Password == "" {
		return fmt.Errorf("DOTMAILER_USERNAME and DOTMAILER_PASSWORD are required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("DOTMAILER_ENDPOINT is required")
	}
	if c.HTTPMaxTries == 0 {
		return fmt.Errorf("DOTMAILER_HTTP_MAX_TRIES must be at least 1")
	}
	return nil
}
