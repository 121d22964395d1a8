// Package config loads tsparse settings from tsparse.yml, TSPARSE_*
// environment variables and built-in defaults, in that order of precedence
// after explicit command-line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tsparse/tsparse/internal/format"
)

// Formats lists the accepted values of output.format
var Formats = []string{"debug", "sexpr", "json"}

// Config represents the tsparse configuration
type Config struct {
	Input   string        `mapstructure:"input"`
	Grammar string        `mapstructure:"grammar"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Format  format.Config `mapstructure:"format"`
}

// OutputConfig controls how parse results are printed
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// WatchConfig controls file watching
type WatchConfig struct {
	Patterns []string      `mapstructure:"patterns"`
	Ignored  []string      `mapstructure:"ignored"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// ServeConfig controls the HTTP parse service
type ServeConfig struct {
	Addr           string        `mapstructure:"addr"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	MaxSourceBytes int64         `mapstructure:"max_source_bytes"`
	Metrics        bool          `mapstructure:"metrics"`
	Redis          RedisConfig   `mapstructure:"redis"`
	SQLite         SQLiteConfig  `mapstructure:"sqlite"`
}

// RedisConfig selects a Redis cache for the parse service. An empty Addr
// means an in-process cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SQLiteConfig selects a SQLite file cache for the parse service. Expired
// rows are pruned on PruneSchedule, a cron expression.
type SQLiteConfig struct {
	Path          string `mapstructure:"path"`
	PruneSchedule string `mapstructure:"prune_schedule"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "test.ts")
	v.SetDefault("grammar", "")
	v.SetDefault("output.format", "debug")
	v.SetDefault("output.color", true)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.development", true)
	v.SetDefault("watch.patterns", []string{"*.ts"})
	v.SetDefault("watch.ignored", []string{"*.swp", "*~"})
	v.SetDefault("watch.debounce", 100*time.Millisecond)
	v.SetDefault("serve.addr", ":7070")
	v.SetDefault("serve.cache_ttl", 10*time.Minute)
	v.SetDefault("serve.max_source_bytes", 1<<20)
	v.SetDefault("serve.redis.addr", "")
	v.SetDefault("serve.redis.password", "")
	v.SetDefault("serve.redis.db", 0)
	v.SetDefault("serve.metrics", true)
	v.SetDefault("serve.sqlite.path", "")
	v.SetDefault("serve.sqlite.prune_schedule", "@every 10m")
	v.SetDefault("format.indent_size", format.DefaultConfig().IndentSize)
	v.SetDefault("format.line_width", format.DefaultConfig().LineWidth)
}

// Load reads the configuration. An empty path searches the working directory
// for tsparse.yml or tsparse.yaml and falls back to defaults when neither
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tsparse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TSPARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that cannot be expressed as defaults
func (c *Config) Validate() error {
	if !slices.Contains(Formats, c.Output.Format) {
		return &InvalidValueError{Key: "output.format", Value: c.Output.Format, Allowed: Formats}
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %s", c.Watch.Debounce)
	}
	if c.Serve.Addr == "" {
		return errors.New("serve.addr must not be empty")
	}
	if c.Serve.Redis.Addr != "" && c.Serve.SQLite.Path != "" {
		return errors.New("serve.redis.addr and serve.sqlite.path are mutually exclusive")
	}
	return c.Format.Validate()
}

// InvalidValueError reports a setting outside its allowed set
type InvalidValueError struct {
	Key     string
	Value   string
	Allowed []string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s must be one of %s, got %q", e.Key, strings.Join(e.Allowed, ", "), e.Value)
}
