// ABOUTME: Configuration loading and parsing for mandi-gateway
// ABOUTME: Supports YAML files with environment variable expansion and startup validation

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// MinSecretLength is the minimum accepted length for the JWT signing secret.
const MinSecretLength = 32

// Config represents the complete mandi-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// AuthConfig holds token verification configuration
type AuthConfig struct {
	// JWTSecret is the shared secret the external issuer signs tokens with
	JWTSecret string `yaml:"jwt_secret"`

	// VerifyAudience enables audience claim checking. Disabled by default
	// for cross-deployment flexibility; enable and set Audience to tighten.
	VerifyAudience bool   `yaml:"verify_audience"`
	Audience       string `yaml:"audience"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds blob storage configuration for product images
type StorageConfig struct {
	// Dir is the local directory uploaded objects are written to
	Dir string `yaml:"dir"`
	// PublicBaseURL is the prefix public object URLs are built from.
	// Defaults to /uploads (served by the gateway itself).
	PublicBaseURL string `yaml:"public_base_url"`
}

// AdvisorConfig holds crop advisor model configuration
type AdvisorConfig struct {
	// ModelDir is the directory containing manifest.toml and the forest file.
	// If empty or unloadable the advisor runs degraded (predictions return 503).
	ModelDir string `yaml:"model_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in optional fields that have sensible defaults
func (c *Config) applyDefaults() {
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data/uploads"
	}
	if c.Storage.PublicBaseURL == "" {
		c.Storage.PublicBaseURL = "/uploads"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// A missing required value is a hard startup failure, not a degraded mode.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes, got %d", MinSecretLength, len(c.Auth.JWTSecret))
	}

	if c.Auth.VerifyAudience && c.Auth.Audience == "" {
		return fmt.Errorf("auth.audience is required when auth.verify_audience is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}
