package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tsparse/tsparse/internal/format"
)

// chdir switches into dir for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	// No config file: defaults only
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Input != "test.ts" {
		t.Errorf("expected default input 'test.ts', got %s", cfg.Input)
	}
	if cfg.Grammar != "" {
		t.Errorf("expected embedded grammar by default, got %s", cfg.Grammar)
	}
	if cfg.Output.Format != "debug" {
		t.Errorf("expected default format 'debug', got %s", cfg.Output.Format)
	}
	if !cfg.Output.Color {
		t.Error("expected color to be enabled by default")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected default log level 'warn', got %s", cfg.Log.Level)
	}
	if len(cfg.Watch.Patterns) != 1 || cfg.Watch.Patterns[0] != "*.ts" {
		t.Errorf("expected default watch patterns [*.ts], got %v", cfg.Watch.Patterns)
	}
	if cfg.Watch.Debounce != 100*time.Millisecond {
		t.Errorf("expected default debounce 100ms, got %s", cfg.Watch.Debounce)
	}
	if cfg.Serve.Addr != ":7070" {
		t.Errorf("expected default serve address ':7070', got %s", cfg.Serve.Addr)
	}
	if cfg.Serve.CacheTTL != 10*time.Minute {
		t.Errorf("expected default cache ttl 10m, got %s", cfg.Serve.CacheTTL)
	}
	if cfg.Serve.Redis.Addr != "" {
		t.Errorf("expected no redis by default, got %s", cfg.Serve.Redis.Addr)
	}
	if !cfg.Serve.Metrics {
		t.Error("expected metrics to be enabled by default")
	}
	if cfg.Serve.SQLite.Path != "" || cfg.Serve.SQLite.PruneSchedule != "@every 10m" {
		t.Errorf("expected no sqlite cache pruned every 10m by default, got %+v", cfg.Serve.SQLite)
	}
	if cfg.Format.IndentSize != 2 || cfg.Format.LineWidth != 80 {
		t.Errorf("expected default format settings 2/80, got %+v", cfg.Format)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	configContent := `
input: exprs.ts
output:
  format: sexpr
  color: false
watch:
  patterns: ["*.ts", "*.expr"]
  debounce: 250ms
serve:
  addr: 127.0.0.1:9000
  redis:
    addr: localhost:6379
    db: 2
`
	if err := os.WriteFile("tsparse.yml", []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Input != "exprs.ts" {
		t.Errorf("expected input 'exprs.ts', got %s", cfg.Input)
	}
	if cfg.Output.Format != "sexpr" {
		t.Errorf("expected format 'sexpr', got %s", cfg.Output.Format)
	}
	if cfg.Output.Color {
		t.Error("expected color to be disabled")
	}
	if len(cfg.Watch.Patterns) != 2 {
		t.Errorf("expected two watch patterns, got %v", cfg.Watch.Patterns)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %s", cfg.Watch.Debounce)
	}
	if cfg.Serve.Addr != "127.0.0.1:9000" {
		t.Errorf("expected serve address '127.0.0.1:9000', got %s", cfg.Serve.Addr)
	}
	if cfg.Serve.Redis.Addr != "localhost:6379" || cfg.Serve.Redis.DB != 2 {
		t.Errorf("unexpected redis config %+v", cfg.Serve.Redis)
	}
	// Untouched keys keep their defaults
	if cfg.Log.Level != "warn" {
		t.Errorf("expected default log level, got %s", cfg.Log.Level)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("input: other.ts\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Input != "other.ts" {
		t.Errorf("expected input 'other.ts', got %s", cfg.Input)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	chdir(t, t.TempDir())
	os.WriteFile("tsparse.yml", []byte("output:\n  format: sexpr\n"), 0644)

	t.Setenv("TSPARSE_OUTPUT_FORMAT", "json")
	t.Setenv("TSPARSE_INPUT", "env.ts")
	t.Setenv("TSPARSE_SERVE_REDIS_ADDR", "redis:6379")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Output.Format != "json" {
		t.Errorf("expected env to override the file, got %s", cfg.Output.Format)
	}
	if cfg.Input != "env.ts" {
		t.Errorf("expected input from env, got %s", cfg.Input)
	}
	if cfg.Serve.Redis.Addr != "redis:6379" {
		t.Errorf("expected redis address from env, got %s", cfg.Serve.Redis.Addr)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Output: OutputConfig{Format: "json"},
			Watch:  WatchConfig{Debounce: time.Millisecond},
			Serve:  ServeConfig{Addr: ":7070"},
			Format: format.Config{IndentSize: 2, LineWidth: 80},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown format", func(c *Config) { c.Output.Format = "yaml" }, `output.format must be one of debug, sexpr, json, got "yaml"`},
		{"zero debounce", func(c *Config) { c.Watch.Debounce = 0 }, "watch.debounce must be positive, got 0s"},
		{"empty address", func(c *Config) { c.Serve.Addr = "" }, "serve.addr must not be empty"},
		{"two cache backends", func(c *Config) {
			c.Serve.Redis.Addr = "localhost:6379"
			c.Serve.SQLite.Path = "cache.db"
		}, "serve.redis.addr and serve.sqlite.path are mutually exclusive"},
		{"negative line width", func(c *Config) { c.Format.LineWidth = -1 }, "format.line_width must not be negative, got -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("expected error %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadRejectsInvalidFormat(t *testing.T) {
	chdir(t, t.TempDir())
	os.WriteFile("tsparse.yaml", []byte("output:\n  format: jsno\n"), 0644)

	_, err := Load("")
	var invalid *InvalidValueError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidValueError, got %v", err)
	}
	if invalid.Key != "output.format" || invalid.Value != "jsno" {
		t.Errorf("unexpected error fields %+v", invalid)
	}
}
