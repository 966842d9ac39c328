package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"nimbustalk.org/internal/validate"
)

// Config is passed explicitly into gateway and controller constructors.
// There is no ambient global configuration.
type Config struct {
	BaseURL    string
	AnonKey    string
	UsersTable string

	HTTPTimeout   time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	DebounceDelay time.Duration

	Validation validate.Limits
}

// Default returns the configuration used unless overridden.
func Default() Config {
	return Config{
		UsersTable:    "users",
		HTTPTimeout:   30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		DebounceDelay: 500 * time.Millisecond,
		Validation:    validate.DefaultLimits(),
	}
}

// FromEnv loads configuration from NIMBUS_* environment variables on
// top of the defaults. BaseURL and AnonKey are required.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("NIMBUS_BASE_URL")), "/")
	cfg.AnonKey = strings.TrimSpace(os.Getenv("NIMBUS_ANON_KEY"))
	if cfg.BaseURL == "" {
		return Config{}, errors.New("config: NIMBUS_BASE_URL is required")
	}
	if cfg.AnonKey == "" {
		return Config{}, errors.New("config: NIMBUS_ANON_KEY is required")
	}

	if v := os.Getenv("NIMBUS_USERS_TABLE"); v != "" {
		cfg.UsersTable = v
	}
	if v := os.Getenv("NIMBUS_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("config: invalid NIMBUS_HTTP_TIMEOUT")
		}
		cfg.HTTPTimeout = d
	}
	if v := os.Getenv("NIMBUS_DEBOUNCE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("config: invalid NIMBUS_DEBOUNCE_DELAY")
		}
		cfg.DebounceDelay = d
	}
	if v := os.Getenv("NIMBUS_MIN_DISPLAY_NAME"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, errors.New("config: invalid NIMBUS_MIN_DISPLAY_NAME")
		}
		cfg.Validation.MinDisplayName = n
	}

	return cfg, nil
}
