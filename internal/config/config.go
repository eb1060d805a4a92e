package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/dialect"
	"github.com/aita/migi/internal/logger"
)

// EnvPrefix prefixes environment overrides, e.g. MIGI_DIALECT
const EnvPrefix = "MIGI"

// DefaultFile is the file written by Save when no path is given
const DefaultFile = "migi.yaml"

// Config represents the migi.yaml configuration structure
type Config struct {
	Dialect       string   `mapstructure:"dialect" yaml:"dialect"`
	Database      string   `mapstructure:"database" yaml:"database"`
	DefaultSchema string   `mapstructure:"default_schema" yaml:"default_schema,omitempty"`
	Paths         []string `mapstructure:"paths" yaml:"paths"`
	Strict        bool     `mapstructure:"strict" yaml:"strict"`
	Snapshot      string   `mapstructure:"snapshot" yaml:"snapshot"`
	MigrationsDir string   `mapstructure:"migrations_dir" yaml:"migrations_dir"`
	DatabaseURL   string   `mapstructure:"database_url" yaml:"database_url,omitempty"`

	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	file string
}

// Default returns the configuration used when no file is found
func Default() *Config {
	cfg := &Config{}
	v := newViper()
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("dialect", "postgres")
	v.SetDefault("database", "postgres")
	v.SetDefault("default_schema", "")
	v.SetDefault("paths", []string{"schema"})
	v.SetDefault("strict", false)
	v.SetDefault("snapshot", "migi.snapshot.yaml")
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("database_url", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. An empty path searches the working
// directory for migi.{yaml,yml,toml,json} and then .migi.yaml; finding no
// file is not an error. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("migi")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case path == "" && errors.As(err, &notFound):
			if _, statErr := os.Stat(".migi.yaml"); statErr == nil {
				v.SetConfigFile(".migi.yaml")
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("failed to read config file: %w", err)
				}
			}
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.file = v.ConfigFileUsed()

	if cfg.file != "" {
		logger.CLI().Debug("Using config file", "path", cfg.file)
	}
	return cfg, nil
}

// File returns the path the configuration was read from, if any
func (c *Config) File() string {
	return c.file
}

// DefaultDatabase is the database name used when none is configured
func DefaultDatabase(d dialect.Dialect) string {
	switch d {
	case dialect.MySQL:
		return "app"
	case dialect.SQLite:
		return "main"
	default:
		return "postgres"
	}
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	d, err := dialect.Parse(c.Dialect)
	if err != nil {
		return fmt.Errorf("invalid dialect: %w", err)
	}
	if d != dialect.SQLite && c.Database == "" {
		return errors.New("database must not be empty")
	}
	if len(c.Paths) == 0 {
		return errors.New("at least one schema path is required")
	}
	if c.Snapshot == "" {
		return errors.New("snapshot path must not be empty")
	}
	if c.MigrationsDir == "" {
		return errors.New("migrations directory must not be empty")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// CatalogOptions returns the model options the configuration describes
func (c *Config) CatalogOptions() (catalog.Options, error) {
	d, err := dialect.Parse(c.Dialect)
	if err != nil {
		return catalog.Options{}, fmt.Errorf("invalid dialect: %w", err)
	}
	return catalog.Options{
		Dialect:       d,
		Database:      c.Database,
		DefaultSchema: c.DefaultSchema,
	}, nil
}

// Save writes the configuration as YAML, creating parent directories
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultFile
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
