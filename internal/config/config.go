// Package config provides configuration management for xslate using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration system reads an optional .xslate.yml file, applies
// environment variable overrides with the XSLATE_ prefix and validates the
// result. It covers logging, output overrides for transformations and the
// stylesheet watcher.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	xerrors "github.com/conneroisu/xslate/internal/errors"
	"github.com/conneroisu/xslate/internal/logging"
	"github.com/conneroisu/xslate/internal/output"
	"github.com/conneroisu/xslate/internal/validation"
)

type Config struct {
	Log         LogConfig    `yaml:"log" mapstructure:"log"`
	Output      OutputConfig `yaml:"output" mapstructure:"output"`
	Watch       WatchConfig  `yaml:"watch" mapstructure:"watch"`
	TargetFiles []string     `yaml:"-" mapstructure:"-"` // CLI arguments, not from config file
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type OutputConfig struct {
	// Method overrides the method declared by xsl:output when set.
	Method      string `yaml:"method" mapstructure:"method"`
	SanitizeRaw bool   `yaml:"sanitize_raw" mapstructure:"sanitize_raw"`
}

type WatchConfig struct {
	Paths      []string      `yaml:"paths" mapstructure:"paths"`
	Extensions []string      `yaml:"extensions" mapstructure:"extensions"`
	Debounce   time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// Defaults applied when a value is not configured.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultDebounce  = 300 * time.Millisecond
	MaxDebounce      = time.Minute
)

// EnvPrefix prefixes every environment override, e.g. XSLATE_LOG_LEVEL.
const EnvPrefix = "XSLATE"

// Keys lists every configuration key. They are bound to environment
// variables explicitly so Unmarshal sees overrides no file mentions.
var Keys = []string{
	"log.level",
	"log.format",
	"output.method",
	"output.sanitize_raw",
	"watch.paths",
	"watch.extensions",
	"watch.debounce",
}

// ConfigureEnv enables XSLATE_ environment overrides on the global viper.
func ConfigureEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range Keys {
		_ = viper.BindEnv(key)
	}
}

// DefaultExtensions are the stylesheet file extensions the watcher reacts to.
var DefaultExtensions = []string{".xsl", ".xslt"}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Log:   LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Watch: WatchConfig{
			Paths:      []string{"."},
			Extensions: append([]string(nil), DefaultExtensions...),
			Debounce:   DefaultDebounce,
		},
	}
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, xerrors.NewConfigError(xerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot decode configuration: %v", err))
	}

	// Handle slices set via viper (workaround for viper slice handling)
	if viper.IsSet("watch.paths") && len(config.Watch.Paths) == 0 {
		config.Watch.Paths = viper.GetStringSlice("watch.paths")
	}
	if viper.IsSet("watch.extensions") && len(config.Watch.Extensions) == 0 {
		config.Watch.Extensions = viper.GetStringSlice("watch.extensions")
	}
	if viper.IsSet("output.sanitize_raw") {
		config.Output.SanitizeRaw = viper.GetBool("output.sanitize_raw")
	}

	// Apply default values if not set
	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Log.Format == "" {
		config.Log.Format = DefaultLogFormat
	}
	if len(config.Watch.Paths) == 0 {
		config.Watch.Paths = []string{"."}
	}
	if len(config.Watch.Extensions) == 0 {
		config.Watch.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if !viper.IsSet("watch.debounce") {
		config.Watch.Debounce = DefaultDebounce
	}

	if err := validateConfig(&config); err != nil {
		return nil, xerrors.NewConfigError(xerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid configuration: %v", err))
	}

	return &config, nil
}

// LoggerConfig converts the log section for logging.NewLogger.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	lc.Format = c.Log.Format
	return lc
}

// OutputMethod returns the configured method override, or "" for none.
func (c *Config) OutputMethod() output.Method {
	return output.Method(c.Output.Method)
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	if err := validateOutputConfig(&config.Output); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := validateWatchConfig(&config.Watch); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}
	if config.Format != "text" && config.Format != "json" {
		return fmt.Errorf("format %q must be text or json", config.Format)
	}
	return nil
}

func validateOutputConfig(config *OutputConfig) error {
	if config.Method == "" {
		return nil
	}
	_, err := output.ParseMethod(config.Method)
	return err
}

func validateWatchConfig(config *WatchConfig) error {
	if config.Debounce < 0 || config.Debounce > MaxDebounce {
		return fmt.Errorf("debounce %s is not in valid range 0-%s", config.Debounce, MaxDebounce)
	}

	for _, path := range config.Paths {
		if err := validation.ValidatePath(path); err != nil {
			return fmt.Errorf("invalid watch path '%s': %w", path, err)
		}
	}

	for _, ext := range config.Extensions {
		if err := validation.ValidateExtension(ext); err != nil {
			return err
		}
	}

	return nil
}
