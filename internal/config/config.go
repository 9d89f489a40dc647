// Package config provides Viper-based configuration loading for the combat
// daemon and tools.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns on combat state persistence.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EngineConfig holds combat engine settings.
type EngineConfig struct {
	// TickInterval is the game tick period; roundtime and bleeding advance once per tick.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Seed makes every roll reproducible when non-zero. Zero uses crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// RemainsTTL is how long remains lie in a room before decaying. Zero keeps them forever.
	RemainsTTL time.Duration `mapstructure:"remains_ttl"`
}

// ContentConfig names the reference data locations. Relative paths resolve
// against Dir.
type ContentConfig struct {
	Dir        string `mapstructure:"dir"`
	Races      string `mapstructure:"races"`
	Weapons    string `mapstructure:"weapons"`
	Armor      string `mapstructure:"armor"`
	Shields    string `mapstructure:"shields"`
	Criticals  string `mapstructure:"criticals"`
	Thresholds string `mapstructure:"thresholds"`
	NPCs       string `mapstructure:"npcs"`
	Zones      string `mapstructure:"zones"`
	Scripts    string `mapstructure:"scripts"`
}

// Path resolves p against Dir. Absolute and empty paths are returned unchanged.
func (c ContentConfig) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// ScriptingConfig holds Lua hook settings.
type ScriptingConfig struct {
	// InstructionLimit caps opcodes per hook call. Zero uses the package default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// MetricsConfig holds OpenTelemetry metric settings.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Interval is how often collected metric totals are logged.
	Interval time.Duration `mapstructure:"interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Content   ContentConfig   `mapstructure:"content"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}
	if c.Metrics.Enabled && c.Metrics.Interval <= 0 {
		errs = append(errs, "metrics.interval must be positive when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("engine.tick_interval must be positive, got %s", e.TickInterval))
	}
	if e.RemainsTTL < 0 {
		errs = append(errs, "engine.remains_ttl must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	required := []struct{ key, val string }{
		{"content.races", c.Races},
		{"content.weapons", c.Weapons},
		{"content.armor", c.Armor},
		{"content.criticals", c.Criticals},
		{"content.thresholds", c.Thresholds},
	}
	for _, r := range required {
		if r.val == "" {
			errs = append(errs, r.key+" must not be empty")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies COMBAT_
// environment variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and COMBAT_ environment
// overrides applied and no config file.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("COMBAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "combat")
	v.SetDefault("database.password", "combat")
	v.SetDefault("database.name", "combat")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.tick_interval", "1s")
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.remains_ttl", "10m")

	v.SetDefault("content.dir", "content")
	v.SetDefault("content.races", "races.yaml")
	v.SetDefault("content.weapons", "weapons")
	v.SetDefault("content.armor", "armor")
	v.SetDefault("content.shields", "shields")
	v.SetDefault("content.criticals", "criticals")
	v.SetDefault("content.thresholds", "fatal_thresholds.yaml")
	v.SetDefault("content.npcs", "npcs")
	v.SetDefault("content.zones", "zones")
	v.SetDefault("content.scripts", "scripts")

	v.SetDefault("scripting.instruction_limit", 100000)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.interval", "30s")
}
