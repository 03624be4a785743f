// Package config loads scoreorder settings from defaults, an optional TOML
// file and SCOREORDER_* environment variables, in increasing precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
)

// EnvPrefix prefixes every environment override, e.g. SCOREORDER_LOG_LEVEL.
const EnvPrefix = "SCOREORDER"

// Config holds the application settings.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
	Locale  string        `mapstructure:"locale"`
}

// CatalogConfig names extra catalog files merged over the built-in ones.
type CatalogConfig struct {
	Orders      string `mapstructure:"orders"`
	Instruments string `mapstructure:"instruments"`
}

// StoreConfig holds the customized order database settings.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "scoreorder")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "scoreorder")
}

// DefaultConfigPath returns the config file used when SCOREORDER_CONFIG is
// not set.
func DefaultConfigPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "scoreorder", "config.toml")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("catalog.orders", "")
	v.SetDefault("catalog.instruments", "")
	v.SetDefault("store.path", filepath.Join(dataDir(), "orders.db"))
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("locale", "en")

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the configuration from the file named by SCOREORDER_CONFIG,
// or from DefaultConfigPath.
func Load() (Config, error) {
	return LoadFile(os.Getenv(EnvPrefix + "_CONFIG"))
}

// LoadFile reads the configuration from path ("" for DefaultConfigPath).
// A missing default config file is not an error; a missing explicit file or
// a malformed file is.
func LoadFile(path string) (Config, error) {
	v := newViper()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		switch {
		case fileExists(path):
			return Config{}, errors.NewParse("config", path, err)
		case explicit:
			return Config{}, errors.NewIO("read", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	return c, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Save writes c as TOML to path, creating the directory if needed.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewIO("mkdir", filepath.Dir(path), err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("catalog.orders", c.Catalog.Orders)
	v.Set("catalog.instruments", c.Catalog.Instruments)
	v.Set("store.path", c.Store.Path)
	v.Set("log.level", c.Log.Level)
	v.Set("log.format", c.Log.Format)
	v.Set("locale", c.Locale)

	if err := v.WriteConfigAs(path); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}
