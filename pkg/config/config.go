package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that additionally unmarshals from YAML strings
// like "5s" and from bare numbers, which are read as milliseconds
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		if parsed, err := time.ParseDuration(raw); err == nil {
			*d = Duration(parsed)
			return nil
		}
	}

	var ms int64
	if err := value.Decode(&ms); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// Std returns the duration as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the client configuration loaded from YAML
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Auth    AuthConfig    `yaml:"auth"`
	Cache   CacheConfig   `yaml:"cache"`
	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

// CatalogConfig configures the product catalog client
type CatalogConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key,omitempty"`
	MaxRetries int    `yaml:"max_retries,omitempty"`
}

// AuthConfig configures the OAuth2 client-credentials exchange. BaseURL is
// the identity provider; the token endpoint is {base_url}/token.
type AuthConfig struct {
	BaseURL      string `yaml:"base_url,omitempty"`
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
}

// CacheConfig configures spec caching. A non-positive TTL disables caching.
type CacheConfig struct {
	TTL       Duration `yaml:"ttl"`
	RedisAddr string   `yaml:"redis_addr,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing
type TracingConfig struct {
	Enabled           bool   `yaml:"enabled"`
	ServiceName       string `yaml:"service_name,omitempty"`
	CollectorEndpoint string `yaml:"collector_endpoint,omitempty"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

// LoadFromFile loads a configuration from a YAML file
func LoadFromFile(filePath string) (*Config, error) {
	// Validate file path
	if !isValidFilePath(filePath) {
		return nil, fmt.Errorf("invalid file path")
	}

	// Read file safely
	data, err := os.ReadFile(filePath) // #nosec G304 - Path is validated with isValidFilePath() before use
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyEnv()
	return &cfg, nil
}

// LoadFromEnv builds a configuration entirely from environment variables
func LoadFromEnv() *Config {
	var cfg Config
	cfg.applyEnv()
	return &cfg
}

// applyEnv overlays environment variables on top of the loaded values.
// Environment wins so that credentials never need to live in the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("APITOOLS_CATALOG_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("APITOOLS_CATALOG_API_KEY"); v != "" {
		c.Catalog.APIKey = v
	}
	if v := os.Getenv("APITOOLS_AUTH_URL"); v != "" {
		c.Auth.BaseURL = v
	}
	if v := os.Getenv("APITOOLS_CLIENT_ID"); v != "" {
		c.Auth.ClientID = v
	}
	if v := os.Getenv("APITOOLS_CLIENT_SECRET"); v != "" {
		c.Auth.ClientSecret = v
	}
	if v := os.Getenv("APITOOLS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = Duration(d)
		} else if ms, err := strconv.Atoi(v); err == nil {
			c.Cache.TTL = Duration(time.Duration(ms) * time.Millisecond)
		}
	}
	if v := os.Getenv("APITOOLS_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("APITOOLS_TRACING_ENDPOINT"); v != "" {
		c.Tracing.Enabled = true
		c.Tracing.CollectorEndpoint = v
	}
	if v := os.Getenv("APITOOLS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks that the configuration is complete enough to build a client
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL is required")
	}
	if c.Auth.ClientID != "" && c.Auth.BaseURL == "" {
		return fmt.Errorf("auth credentials are set but no auth base URL is set")
	}
	if c.Tracing.Enabled && c.Tracing.CollectorEndpoint == "" {
		return fmt.Errorf("tracing is enabled but no collector endpoint is set")
	}
	return nil
}

// isValidFilePath checks if a file path is valid and safe
func isValidFilePath(filePath string) bool {
	// Check for empty path
	if filePath == "" {
		return false
	}

	// Clean and normalize the path
	cleanPath := filepath.Clean(filePath)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return false
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return false
	}

	if strings.HasPrefix(absPath, "/proc") ||
		strings.HasPrefix(absPath, "/sys") ||
		strings.HasPrefix(absPath, "/dev") {
		return false
	}

	// Ensure the file exists and is a regular file
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
