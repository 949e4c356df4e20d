// Package config loads .pearls/config.toml and layers environment
// variable overrides on top of it via viper, using TOML as the wire
// format this repo's config file actually uses.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/mrorigo/pearls/internal/errs"
	"github.com/spf13/viper"
)

// OutputFormat is the rendering mode for CLI output.
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatPlain OutputFormat = "plain"
)

// Config is the full set of Pearls configuration knobs, sourced from
// .pearls/config.toml and overridable via PEARLS_<UPPER_SNAKE>
// environment variables.
type Config struct {
	DefaultPriority      int          `mapstructure:"default_priority" toml:"default_priority"`
	CompactThresholdDays int          `mapstructure:"compact_threshold_days" toml:"compact_threshold_days"`
	UseIndex             bool         `mapstructure:"use_index" toml:"use_index"`
	OutputFormat         OutputFormat `mapstructure:"output_format" toml:"output_format"`
	AutoCloseOnCommit    bool         `mapstructure:"auto_close_on_commit" toml:"auto_close_on_commit"`
}

// Default returns the configuration a freshly initialized repo starts
// with.
func Default() Config {
	return Config{
		DefaultPriority:      2,
		CompactThresholdDays: 30,
		UseIndex:             false,
		OutputFormat:         FormatPlain,
		AutoCloseOnCommit:    true,
	}
}

// Load reads path (typically .pearls/config.toml), falling back silently
// to defaults if the file does not exist, then layers any PEARLS_* env
// vars over the result via viper's AutomaticEnv.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("pearls")
	v.AutomaticEnv()

	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if !isNotExist(err) {
			return Config{}, errs.Wrap(errs.Io, err, "reading config %s", path)
		}
		// No config file: defaults plus env overrides still apply below.
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return Config{}, errs.Wrap(errs.Parse, err, "parsing config %s", path)
	}
	return out, nil
}

func bindDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("default_priority", cfg.DefaultPriority)
	v.SetDefault("compact_threshold_days", cfg.CompactThresholdDays)
	v.SetDefault("use_index", cfg.UseIndex)
	v.SetDefault("output_format", string(cfg.OutputFormat))
	v.SetDefault("auto_close_on_commit", cfg.AutoCloseOnCommit)
}

func isNotExist(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	// An explicitly set config file that is absent surfaces as a plain
	// not-exist error rather than ConfigFileNotFoundError.
	return os.IsNotExist(err)
}

// Save writes cfg to path as TOML, the inverse of Load minus env layering
// (env vars are never persisted back to the file).
func Save(path string, cfg Config) error {
	// #nosec G304 -- path is the caller-configured .pearls/config.toml location
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.Io, err, "creating config %s", path)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return errs.Wrap(errs.Io, err, "encoding config %s", path)
	}
	return nil
}
