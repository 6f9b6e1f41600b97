package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const (
	defaultPort          = "8123"
	defaultCacheCapacity = 1024
)

type Config struct {
	port          string
	cacheCapacity int
	cacheTTL      time.Duration
	databaseURL   string
	sentryDSN     string
	otelEnabled   bool
	// Domain suffixes allowed to make cross origin requests
	allowedOrigins []string
	env            environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) CacheCapacity() int {
	return c.cacheCapacity
}

// CacheTTL is zero when entries should never expire
func (c *Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c *Config) DatabaseURL() string {
	return c.databaseURL
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) AllowedOrigins() []string {
	return c.allowedOrigins
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, cacheCapacity: %d, cacheTTL: %s, otelEnabled: %t, ...}",
		string(c.env), c.port, c.cacheCapacity, c.cacheTTL, c.otelEnabled,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key, value string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, value)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("AUTOLRU_ENVIRONMENT")
	if !ok {
		return missingKey("AUTOLRU_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("AUTOLRU_ENVIRONMENT", rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	cacheCapacity := defaultCacheCapacity
	if rawCapacity := os.Getenv("CACHE_CAPACITY"); rawCapacity != "" {
		parsed, err := strconv.Atoi(rawCapacity)
		if err != nil || parsed < 1 {
			return invalidValue("CACHE_CAPACITY", rawCapacity)
		}
		cacheCapacity = parsed
	}

	var cacheTTL time.Duration
	if rawTTL := os.Getenv("CACHE_TTL"); rawTTL != "" {
		parsed, err := time.ParseDuration(rawTTL)
		if err != nil || parsed < 0 {
			return invalidValue("CACHE_TTL", rawTTL)
		}
		cacheTTL = parsed
	}

	otelEnabled := false
	if rawOTel := os.Getenv("OTEL_ENABLED"); rawOTel != "" {
		parsed, err := strconv.ParseBool(rawOTel)
		if err != nil {
			return invalidValue("OTEL_ENABLED", rawOTel)
		}
		otelEnabled = parsed
	}

	allowedOrigins := []string{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}

	databaseURL := os.Getenv("DATABASE_URL")
	sentryDSN := os.Getenv("SENTRY_DSN")

	if env == production || env == staging {
		if databaseURL == "" {
			return missingKey("DATABASE_URL")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		port:           port,
		cacheCapacity:  cacheCapacity,
		cacheTTL:       cacheTTL,
		databaseURL:    databaseURL,
		sentryDSN:      sentryDSN,
		otelEnabled:    otelEnabled,
		allowedOrigins: allowedOrigins,
		env:            env,
	}, nil
}
