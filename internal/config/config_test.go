package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %s, want :8080", cfg.Server.Addr)
	}
	if cfg.Database.Path != "./wanlens.db" {
		t.Errorf("Database.Path = %s, want ./wanlens.db", cfg.Database.Path)
	}
	if cfg.Correlation.DriftThresholdPct != 10 {
		t.Errorf("DriftThresholdPct = %v, want 10", cfg.Correlation.DriftThresholdPct)
	}
	if cfg.SSH.Command != "show isis database detail | json" {
		t.Errorf("SSH.Command = %q", cfg.SSH.Command)
	}
	if cfg.Refresh.Interval != 0 {
		t.Errorf("Refresh.Interval = %s, want disabled", cfg.Refresh.Interval.Duration())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("WANLENS_TEST_SECRET", "s3cret")

	cfg, err := Parse([]byte(`
server:
  addr: 127.0.0.1:9000
log:
  level: debug
  format: text
refresh:
  interval: 5m
  watch: true
correlation:
  drift_threshold_pct: 15
sources:
  serviceability:
    kind: file
    path: /data/serviceability.json
  telemetry:
    kind: objectstore
    key: snapshots/telemetry.json
  isis:
    kind: ssh
objectstore:
  endpoint: minio:9000
  bucket: wan
  secret_key: ${WANLENS_TEST_SECRET}
ssh:
  host: rtr1
  user: ops
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %s", cfg.Server.Addr)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if cfg.Refresh.Interval.Duration() != 5*time.Minute {
		t.Errorf("Refresh.Interval = %s, want 5m", cfg.Refresh.Interval.Duration())
	}
	if cfg.Refresh.Debounce.Duration() != 2*time.Second {
		t.Errorf("Refresh.Debounce = %s, want default 2s", cfg.Refresh.Debounce.Duration())
	}
	if cfg.Correlation.DriftThresholdPct != 15 {
		t.Errorf("DriftThresholdPct = %v, want 15", cfg.Correlation.DriftThresholdPct)
	}
	if cfg.ObjectStore.SecretKey != "s3cret" {
		t.Errorf("ObjectStore.SecretKey = %q, want expanded env value", cfg.ObjectStore.SecretKey)
	}
	if cfg.SSH.Port != 22 {
		t.Errorf("SSH.Port = %d, want 22", cfg.SSH.Port)
	}

	paths := cfg.FilePaths()
	if len(paths) != 1 || paths[0] != "/data/serviceability.json" {
		t.Errorf("FilePaths() = %v", paths)
	}
	if !strings.Contains(cfg.Summary(), "isis=ssh") {
		t.Errorf("Summary() = %q", cfg.Summary())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad yaml", "server: [", "parse config"},
		{"bad duration", "refresh:\n  interval: soon\n", "parse config"},
		{"bad log level", "log:\n  level: loud\n", "Level"},
		{"unknown source kind", "sources:\n  isis:\n    kind: ftp\n", "Kind"},
		{"file source without path", "sources:\n  telemetry:\n    kind: file\n", "Path"},
		{"objectstore source without key", "sources:\n  telemetry:\n    kind: objectstore\n", "Key"},
		{"objectstore without bucket", "sources:\n  telemetry:\n    kind: objectstore\n    key: t.json\n", "objectstore.bucket"},
		{"ssh without host", "sources:\n  isis:\n    kind: ssh\n", "ssh.host"},
		{"negative threshold", "correlation:\n  drift_threshold_pct: -1\n", "DriftThresholdPct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Refresh.Interval = Duration(90 * time.Second)
	cfg.Sources.Serviceability = SourceConfig{Kind: SourceFile, Path: "/tmp/s.json"}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}
	if loaded.Refresh.Interval.Duration() != 90*time.Second {
		t.Errorf("Refresh.Interval = %s, want 1m30s", loaded.Refresh.Interval.Duration())
	}
	if loaded.Sources.Serviceability.Path != "/tmp/s.json" {
		t.Errorf("Sources.Serviceability.Path = %s", loaded.Sources.Serviceability.Path)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	_, _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	t.Setenv(EnvConfigPath, "")
	if found := FindConfigPath(); found != "" && !strings.HasPrefix(found, "/etc/") {
		t.Errorf("FindConfigPath() = %s, want nothing", found)
	}

	// ~/.config location
	homeCfg := filepath.Join(tmpDir, ".config", ConfigDirName, "config.yaml")
	if err := DefaultConfig().Save(homeCfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if found := FindConfigPath(); found != homeCfg {
		t.Errorf("FindConfigPath() = %s, want %s", found, homeCfg)
	}

	// working directory beats ~/.config
	if err := DefaultConfig().Save(filepath.Join(tmpDir, ConfigFileName)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if found := FindConfigPath(); filepath.Base(found) != ConfigFileName {
		t.Errorf("FindConfigPath() = %s, want ./%s", found, ConfigFileName)
	}

	// explicit env var beats everything, but only when it exists
	explicit := filepath.Join(tmpDir, "explicit.yaml")
	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); filepath.Base(found) != ConfigFileName {
		t.Errorf("FindConfigPath() = %s, should fall back when env path doesn't exist", found)
	}
	if err := DefaultConfig().Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
