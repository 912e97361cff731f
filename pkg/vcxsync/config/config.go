package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filelock"
	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" json:"level" yaml:"level"`
	Path       string            `mapstructure:"path" json:"path" yaml:"path"`
	Components map[string]string `mapstructure:"components" json:"components" yaml:"components"`
}

// CategoriesConfig overrides the file classification globs.
type CategoriesConfig struct {
	Compile []string `mapstructure:"compile" json:"compile" yaml:"compile"`
	Include []string `mapstructure:"include" json:"include" yaml:"include"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" json:"debounce" yaml:"debounce"`
}

// Config represents the application configuration.
type Config struct {
	// Exclude holds patterns added to the built-in exclusions.
	Exclude    []string         `mapstructure:"exclude" json:"exclude" yaml:"exclude"`
	Categories CategoriesConfig `mapstructure:"categories" json:"categories" yaml:"categories"`
	Output     string           `mapstructure:"output" json:"output" yaml:"output"`
	Logging    LoggingConfig    `mapstructure:"logging" json:"logging" yaml:"logging"`
	Watch      WatchConfig      `mapstructure:"watch" json:"watch" yaml:"watch"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-" json:"file,omitempty" yaml:"file,omitempty"`
}

// CategoryRules returns the classification rules, falling back to the
// built-in globs for any category left empty.
func (c *Config) CategoryRules() filter.CategoryRules {
	rules := filter.DefaultCategoryRules()
	if len(c.Categories.Compile) > 0 {
		rules[filter.CategoryCompile] = c.Categories.Compile
	}
	if len(c.Categories.Include) > 0 {
		rules[filter.CategoryInclude] = c.Categories.Include
	}
	return rules
}

// LoadViper loads configuration from file and environment variables into v,
// so command-line flags bound to v take precedence over both.
// An explicit configFile must exist. Otherwise the file is looked up in:
//   - $XDG_CONFIG_HOME/vcxsync/config.yaml
//   - $HOME/.config/vcxsync/config.yaml
//
// Environment variables are prefixed with VCXSYNC_ (e.g., VCXSYNC_OUTPUT).
func LoadViper(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.Logging.Path != "" {
		path, err := ExpandPath(cfg.Logging.Path)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Path = path
	}

	return &cfg, nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	rules := filter.DefaultCategoryRules()

	v.SetDefault("exclude", []string{})
	v.SetDefault("categories.compile", rules[filter.CategoryCompile])
	v.SetDefault("categories.include", rules[filter.CategoryInclude])
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // Empty disables the log file
	v.SetDefault("logging.components", DefaultComponentLevels)
	v.SetDefault("watch.debounce", DefaultDebounce)
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigPath returns the default configuration file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns $XDG_STATE_HOME/vcxsync/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultLogPath returns the suggested log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), AppName+".log")
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	rules := filter.DefaultCategoryRules()
	defaultConfig := fmt.Sprintf(`# vcxsync configuration

# Extra exclusion patterns (regular expressions matched against whole
# file and directory names), added to the built-in list.
exclude: []
#  - third_party
#  - .*\.bak

# File classification globs (matched case-insensitively against names)
categories:
  compile: [%s]
  include: [%s]

# Report format: pretty, plain, json, yaml, paths, template
output: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: %s
  # Log file path (empty disables file logging; suggested: %s)
  path: ""
  # Per-component log levels
  components:
    scanner: info
    reconcile: info
    msbuild: info
    syncer: info
    watcher: warn

# Watch mode
watch:
  # Quiet period before a change triggers a sync
  debounce: %s
`,
		quoteList(rules[filter.CategoryCompile]),
		quoteList(rules[filter.CategoryInclude]),
		DefaultOutput,
		DefaultLogLevel,
		DefaultLogPath(),
		DefaultDebounce,
	)

	if err := filelock.AtomicWrite(configPath, []byte(defaultConfig)); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}

	return configPath, nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = `"` + s + `"`
	}
	return strings.Join(quoted, ", ")
}
