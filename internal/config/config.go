// Package config loads the wanlens YAML configuration.
//
// Config file locations (priority order):
//  1. $WANLENS_CONFIG
//  2. ./wanlens.yaml
//  3. $XDG_CONFIG_HOME/wanlens/config.yaml
//  4. ~/.config/wanlens/config.yaml
//  5. /etc/wanlens/config.yaml
//
// Secret-bearing fields (object store keys, SSH password) may reference
// environment variables as ${NAME}.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"wanlens/internal/domain"
)

// validate is a singleton validator instance
var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes, defaults and validates a config document
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(15 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(60 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if c.Database.Path == "" {
		c.Database.Path = "./wanlens.db"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Refresh.Debounce == 0 {
		c.Refresh.Debounce = Duration(2 * time.Second)
	}

	if c.Correlation.DriftThresholdPct == 0 {
		c.Correlation.DriftThresholdPct = domain.DriftThresholdPct
	}

	if c.ObjectStore.Timeout == 0 {
		c.ObjectStore.Timeout = Duration(30 * time.Second)
	}
	c.ObjectStore.AccessKey = os.ExpandEnv(c.ObjectStore.AccessKey)
	c.ObjectStore.SecretKey = os.ExpandEnv(c.ObjectStore.SecretKey)

	if c.SSH.Port == 0 {
		c.SSH.Port = 22
	}
	if c.SSH.Command == "" {
		c.SSH.Command = "show isis database detail | json"
	}
	if c.SSH.Timeout == 0 {
		c.SSH.Timeout = Duration(30 * time.Second)
	}
	c.SSH.Password = os.ExpandEnv(c.SSH.Password)
}

// Validate checks struct tags and cross-section requirements
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	for name, src := range c.sourceMap() {
		switch src.Kind {
		case SourceObjectStore:
			if c.ObjectStore.Endpoint == "" || c.ObjectStore.Bucket == "" {
				return fmt.Errorf("sources.%s: objectstore source needs objectstore.endpoint and objectstore.bucket", name)
			}
		case SourceSSH:
			if c.SSH.Host == "" || c.SSH.User == "" {
				return fmt.Errorf("sources.%s: ssh source needs ssh.host and ssh.user", name)
			}
		}
	}
	return nil
}

func (c *Config) sourceMap() map[string]SourceConfig {
	return map[string]SourceConfig{
		"serviceability": c.Sources.Serviceability,
		"telemetry":      c.Sources.Telemetry,
		"isis":           c.Sources.ISIS,
	}
}

// FilePaths returns the local files used by file sources, for watching
func (c *Config) FilePaths() []string {
	var paths []string
	for _, src := range []SourceConfig{c.Sources.Serviceability, c.Sources.Telemetry, c.Sources.ISIS} {
		if src.Kind == SourceFile {
			paths = append(paths, src.Path)
		}
	}
	return paths
}

// SlogLevel maps the configured level to a slog.Level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Database: %s\n", c.Server.Addr, c.Database.Path)
	summary += fmt.Sprintf("Refresh: %s, Watch: %v, Drift threshold: %g%%\n",
		c.Refresh.Interval.Duration(), c.Refresh.Watch, c.Correlation.DriftThresholdPct)
	summary += fmt.Sprintf("Sources: serviceability=%s telemetry=%s isis=%s",
		kindOrNone(c.Sources.Serviceability), kindOrNone(c.Sources.Telemetry), kindOrNone(c.Sources.ISIS))
	return summary
}

func kindOrNone(s SourceConfig) string {
	if s.Kind == "" {
		return "none"
	}
	return s.Kind
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required", "required_if":
			return fmt.Errorf("config %s: field is required", field)
		case "oneof":
			return fmt.Errorf("config %s: must be one of [%s], got %q", field, e.Param(), e.Value())
		case "gt", "gte", "lt", "lte":
			return fmt.Errorf("config %s: must be %s %s", field, e.Tag(), e.Param())
		default:
			return fmt.Errorf("config %s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
