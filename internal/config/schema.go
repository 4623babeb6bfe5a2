package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version     int               `yaml:"version"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Correlation CorrelationConfig `yaml:"correlation"`
	Sources     SourcesConfig     `yaml:"sources"`
	ObjectStore ObjectStoreConfig `yaml:"objectstore"`
	SSH         SSHConfig         `yaml:"ssh"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string   `yaml:"addr" validate:"required"`
	CORSOrigin      string   `yaml:"cors_origin"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
	// RetainRuns caps stored correlation runs; 0 keeps everything
	RetainRuns int `yaml:"retain_runs" validate:"gte=0"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// RefreshConfig controls periodic and file-triggered re-correlation
type RefreshConfig struct {
	// Interval of 0 disables periodic refresh
	Interval Duration `yaml:"interval"`
	Watch    bool     `yaml:"watch"`
	Debounce Duration `yaml:"debounce"`
}

// CorrelationConfig tunes health classification
type CorrelationConfig struct {
	DriftThresholdPct float64 `yaml:"drift_threshold_pct" validate:"gt=0,lte=1000"`
}

// Source kinds
const (
	SourceFile        = "file"
	SourceObjectStore = "objectstore"
	SourceSSH         = "ssh"
)

// SourcesConfig says where each snapshot document comes from
type SourcesConfig struct {
	Serviceability SourceConfig `yaml:"serviceability"`
	Telemetry      SourceConfig `yaml:"telemetry"`
	ISIS           SourceConfig `yaml:"isis"`
}

// SourceConfig locates one document. An empty kind disables the source.
type SourceConfig struct {
	Kind string `yaml:"kind" validate:"omitempty,oneof=file objectstore ssh"`
	// Path is a local file (file kind)
	Path string `yaml:"path,omitempty" validate:"required_if=Kind file"`
	// Key is an object key in the configured bucket (objectstore kind)
	Key string `yaml:"key,omitempty" validate:"required_if=Kind objectstore"`
	// Command runs on the SSH host (ssh kind); defaults to SSHConfig.Command
	Command string `yaml:"command,omitempty"`
}

// Enabled reports whether a kind is set
func (s SourceConfig) Enabled() bool {
	return s.Kind != ""
}

// ObjectStoreConfig holds S3-compatible storage settings
type ObjectStoreConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	Bucket    string   `yaml:"bucket"`
	Region    string   `yaml:"region,omitempty"`
	AccessKey string   `yaml:"access_key,omitempty"`
	SecretKey string   `yaml:"secret_key,omitempty"`
	UseSSL    bool     `yaml:"use_ssl"`
	Timeout   Duration `yaml:"timeout"`
}

// SSHConfig holds the router used to pull the link-state database
type SSHConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port" validate:"gte=0,lte=65535"`
	User           string   `yaml:"user"`
	KeyPath        string   `yaml:"key_path,omitempty"`
	Password       string   `yaml:"password,omitempty"`
	KnownHostsPath string   `yaml:"known_hosts_path,omitempty"`
	Command        string   `yaml:"command"`
	Timeout        Duration `yaml:"timeout"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
