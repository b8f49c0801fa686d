package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"reascribe/internal/emit"
)

// DefaultManualURL is the published location of the ReaScript API manual.
const DefaultManualURL = "https://www.reaper.fm/sdk/reascript/reascripthelp.html"

type ManualConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the fetch timeout, falling back to one minute for
// unset or nonsense values.
func (c ManualConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type OutputConfig struct {
	Dialect emit.Dialect `mapstructure:"dialect"`
}

type Config struct {
	Manual ManualConfig `mapstructure:"manual"`
	Output OutputConfig `mapstructure:"output"`
}

// cacheBase returns the base cache directory for reascribe.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/reascribe as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "reascribe")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "reascribe")
	}
	return filepath.Join(os.TempDir(), "reascribe")
}

// CacheDir returns the root cache directory.
func CacheDir() string {
	return cacheBase()
}

// ManualCacheDir returns the directory holding cached manual downloads.
func ManualCacheDir() string {
	return filepath.Join(cacheBase(), "manual")
}

// IndexPath returns the path to the DuckDB index file.
func IndexPath() string {
	return filepath.Join(cacheBase(), "index.db")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "reascribe"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "reascribe"))
	}

	viper.SetDefault("manual.url", DefaultManualURL)
	viper.SetDefault("manual.timeout_seconds", 60)
	viper.SetDefault("output.dialect", "emmylua")

	viper.SetEnvPrefix("REASCRIBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// stringToDialectHookFunc decodes dialect names from config files and the
// environment into emit.Dialect values.
func stringToDialectHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(emit.DialectEmmyLua) {
			return data, nil
		}
		if f.Kind() == reflect.String {
			return emit.ParseDialect(data.(string))
		}
		return data, nil
	}
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToDialectHookFunc(),
		Result:     &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
