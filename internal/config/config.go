// Package config reads service settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables understood by the service.
const (
	EnvAddr             = "ADDR"
	EnvSource           = "LISTINGS_SOURCE"
	EnvLocation         = "LISTINGS_LOCATION"
	EnvFetchTimeout     = "FETCH_TIMEOUT"
	EnvReloadInterval   = "RELOAD_INTERVAL"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
	EnvAWSRegion        = "AWS_REGION"
	EnvS3Endpoint       = "S3_ENDPOINT"
	EnvSiteURL          = "SITE_URL"
	DefaultListingsPath = "data/listings.json"
)

var envVars = []string{
	EnvAddr,
	EnvSource,
	EnvLocation,
	EnvFetchTimeout,
	EnvReloadInterval,
	EnvLogLevel,
	EnvLogFormat,
	EnvAWSRegion,
	EnvS3Endpoint,
	EnvSiteURL,
}

// Config holds raw settings by variable name.
type Config struct {
	values map[string]string
}

// Load reads the given .env files (missing files are skipped) and then the
// process environment. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	cfg := &Config{values: make(map[string]string)}
	cfg.loadFromEnv()
	return cfg, nil
}

// FromMap builds a Config from explicit values, for tests and embedding.
func FromMap(values map[string]string) *Config {
	cfg := &Config{values: make(map[string]string, len(values))}
	for k, v := range values {
		if v != "" {
			cfg.values[k] = v
		}
	}
	return cfg
}

func (c *Config) loadFromEnv() {
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			c.values[envVar] = value
		}
	}
}

func (c *Config) GetString(key, defaultValue string) string {
	if value, exists := c.values[key]; exists {
		return value
	}
	return defaultValue
}

func (c *Config) GetInt(key string, defaultValue int) int {
	if value, exists := c.values[key]; exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) GetDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := c.values[key]; exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Settings is the typed view of the configuration used by main.
type Settings struct {
	Addr           string
	Source         string
	Location       string
	FetchTimeout   time.Duration
	ReloadInterval time.Duration
	LogLevel       string
	LogFormat      string
	AWSRegion      string
	S3Endpoint     string
	SiteURL        string
}

// Settings resolves every setting with its default.
func (c *Config) Settings() Settings {
	return Settings{
		Addr:           c.GetString(EnvAddr, ":8080"),
		Source:         c.GetString(EnvSource, "json"),
		Location:       c.GetString(EnvLocation, DefaultListingsPath),
		FetchTimeout:   c.GetDuration(EnvFetchTimeout, 30*time.Second),
		ReloadInterval: c.GetDuration(EnvReloadInterval, 0),
		LogLevel:       c.GetString(EnvLogLevel, "info"),
		LogFormat:      c.GetString(EnvLogFormat, "json"),
		AWSRegion:      c.GetString(EnvAWSRegion, "us-east-1"),
		S3Endpoint:     c.GetString(EnvS3Endpoint, ""),
		SiteURL:        c.GetString(EnvSiteURL, ""),
	}
}
