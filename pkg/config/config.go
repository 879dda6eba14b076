// Package config loads wren.yaml.
//
// Values come from, in increasing priority: built-in defaults, the
// config file, WREN_* environment variables (WREN_INFER_WORKERS for
// infer.workers) and command-line flags bound with BindFlag.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/wren/pkg/logger"
)

// FileName is the config file looked up in the working directory.
const FileName = "wren.yaml"

// Config represents wren.yaml.
type Config struct {
	Project ProjectConfig `yaml:"project" mapstructure:"project"`
	Infer   InferConfig   `yaml:"infer" mapstructure:"infer"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Check   CheckConfig   `yaml:"check" mapstructure:"check"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ProjectConfig locates the TypeScript project.
type ProjectConfig struct {
	// TSConfig is the tsconfig.json to use. Empty means search upwards
	// from the working directory.
	TSConfig string `yaml:"tsconfig" mapstructure:"tsconfig"`
}

// InferConfig tunes the inference pass.
type InferConfig struct {
	Match     string   `yaml:"match" mapstructure:"match"` // symbol or name
	Workers   int      `yaml:"workers" mapstructure:"workers"`
	Functions []string `yaml:"functions" mapstructure:"functions"`
}

// OutputConfig controls how changes are shown.
type OutputConfig struct {
	DiffContext int    `yaml:"diff_context" mapstructure:"diff_context"`
	Color       string `yaml:"color" mapstructure:"color"` // auto, always or never
}

// CheckConfig is the type-check run after writing. An empty command
// disables it.
type CheckConfig struct {
	Command string `yaml:"command" mapstructure:"command"`
}

// LogConfig sets diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Infer: InferConfig{
			Match: "symbol",
		},
		Output: OutputConfig{
			DiffContext: 3,
			Color:       "auto",
		},
		Check: CheckConfig{
			Command: "npx tsc --noEmit",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Loader reads the configuration with viper.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader creates a loader for path. An empty path looks for
// wren.yaml in dir and is not an error when none exists.
func NewLoader(path, dir string) *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("WREN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("project.tsconfig", def.Project.TSConfig)
	v.SetDefault("infer.match", def.Infer.Match)
	v.SetDefault("infer.workers", def.Infer.Workers)
	v.SetDefault("output.diff_context", def.Output.DiffContext)
	v.SetDefault("output.color", def.Output.Color)
	v.SetDefault("check.command", def.Check.Command)
	v.SetDefault("log.level", def.Log.Level)

	return &Loader{v: v, path: path}
}

// BindFlag lets a changed flag override key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file, if any, and returns the merged, validated
// configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.Used(), err)
	}
	return &cfg, nil
}

// Used returns the config file that was read, or "" when defaults were
// used.
func (l *Loader) Used() string {
	return l.v.ConfigFileUsed()
}

// Validate checks enumerated and numeric values.
func (c *Config) Validate() error {
	var errs []error
	switch c.Infer.Match {
	case "symbol", "name":
	default:
		errs = append(errs, fmt.Errorf("infer.match must be symbol or name, got %q", c.Infer.Match))
	}
	if c.Infer.Workers < 0 {
		errs = append(errs, fmt.Errorf("infer.workers must not be negative"))
	}
	if c.Output.DiffContext < 0 {
		errs = append(errs, fmt.Errorf("output.diff_context must not be negative"))
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("output.color must be auto, always or never, got %q", c.Output.Color))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Save writes cfg as YAML. An existing file is only replaced with force.
func Save(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	header := "# wren configuration. Environment variables WREN_<SECTION>_<KEY> override these values.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
