// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/autobrr/crossseed/internal/pkg/timeouts"
)

const (
	// EnvPrefix prefixes every environment override, e.g. CROSS_SEED_TORRENTSPATH.
	EnvPrefix = "CROSS_SEED"
	// EnvConfigPath points at the config file; ".toml" is appended when missing.
	EnvConfigPath = "CROSS_SEED_CONFIG"

	configFileName = "config.toml"
	appDirName     = "crossseed"
)

// RunMode selects between a single pass and a long running process.
type RunMode string

const (
	RunModeScript RunMode = "script"
	RunModeDaemon RunMode = "daemon"
)

// TorrentMode selects what happens with matches. Only search is implemented.
type TorrentMode string

const (
	TorrentModeSearch TorrentMode = "search"
	TorrentModeInject TorrentMode = "inject"
)

// IndexerConfig is one entry of the [indexers] table. Name comes from the table key.
type IndexerConfig struct {
	Name    string
	Enabled *bool
	URL     string
	APIKey  string
}

// IsEnabled treats a missing enabled key as enabled.
func (i IndexerConfig) IsEnabled() bool {
	return i.Enabled == nil || *i.Enabled
}

// Config is the resolved application configuration.
type Config struct {
	TorrentsPath string      `mapstructure:"torrentsPath"`
	RunMode      RunMode     `mapstructure:"runMode"`
	TorrentMode  TorrentMode `mapstructure:"torrentMode"`
	// Interval between daemon passes.
	Interval time.Duration `mapstructure:"interval"`
	// Watch re-runs a daemon pass when torrent files change.
	Watch bool `mapstructure:"watch"`

	RequestTimeout        time.Duration `mapstructure:"requestTimeout"`
	RunTimeout            time.Duration `mapstructure:"runTimeout"`
	Workers               int           `mapstructure:"workers"`
	PerIndexerConcurrency int           `mapstructure:"perIndexerConcurrency"`
	RetryAttempts         int           `mapstructure:"retryAttempts"`
	SmartQueries          bool          `mapstructure:"smartQueries"`

	LogLevel      string `mapstructure:"logLevel"`
	LogPath       string `mapstructure:"logPath"`
	LogMaxSize    int    `mapstructure:"logMaxSize"`
	LogMaxBackups int    `mapstructure:"logMaxBackups"`

	MetricsEnabled        bool   `mapstructure:"metricsEnabled"`
	MetricsHost           string `mapstructure:"metricsHost"`
	MetricsPort           int    `mapstructure:"metricsPort"`
	MetricsBasicAuthUsers string `mapstructure:"metricsBasicAuthUsers"`

	Indexers []IndexerConfig `mapstructure:"-"`
}

// AppConfig couples the resolved Config with the viper instance it came from.
type AppConfig struct {
	Config *Config
	viper  *viper.Viper
	dir    string
}

// Options controls where configuration is read from.
type Options struct {
	// ConfigPath is a file or directory; it takes precedence over CROSS_SEED_CONFIG.
	ConfigPath string
	// ConfigDir is used when neither ConfigPath nor CROSS_SEED_CONFIG is set.
	ConfigDir string
	// Overrides are dotted key=value pairs applied above every other source.
	Overrides []string
}

// New loads configuration with precedence overrides > environment > file > defaults.
func New(opts Options) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, explicit := resolveConfigPath(opts)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
			if explicit {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			log.Debug().Str("path", path).Msg("No config file found, using defaults and environment")
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := applyOverrides(v, opts.Overrides); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	indexers, err := loadIndexers(v)
	if err != nil {
		return nil, err
	}
	cfg.Indexers = indexers

	normalize(cfg)

	return &AppConfig{Config: cfg, viper: v, dir: filepath.Dir(path)}, nil
}

// ConfigFileUsed returns the config file path, whether or not it existed.
func (c *AppConfig) ConfigFileUsed() string {
	return c.viper.ConfigFileUsed()
}

// Dir returns the directory of the config file.
func (c *AppConfig) Dir() string {
	return c.dir
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("torrentsPath", "")
	v.SetDefault("runMode", string(RunModeScript))
	v.SetDefault("torrentMode", string(TorrentModeSearch))
	v.SetDefault("interval", 6*time.Hour)
	v.SetDefault("watch", true)
	v.SetDefault("requestTimeout", timeouts.DefaultRequestTimeout)
	v.SetDefault("runTimeout", time.Duration(0))
	v.SetDefault("workers", 8)
	v.SetDefault("perIndexerConcurrency", 2)
	v.SetDefault("retryAttempts", 1)
	v.SetDefault("smartQueries", false)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logPath", "")
	v.SetDefault("logMaxSize", 50)
	v.SetDefault("logMaxBackups", 3)
	v.SetDefault("metricsEnabled", false)
	v.SetDefault("metricsHost", "127.0.0.1")
	v.SetDefault("metricsPort", 9074)
	v.SetDefault("metricsBasicAuthUsers", "")
}

// resolveConfigPath returns the config file path and whether the user asked for it explicitly.
func resolveConfigPath(opts Options) (string, bool) {
	if opts.ConfigPath != "" {
		return fileInDir(opts.ConfigPath), true
	}

	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		if !strings.EqualFold(filepath.Ext(env), ".toml") {
			env += ".toml"
		}
		return env, true
	}

	dir := opts.ConfigDir
	if dir == "" {
		dir = GetDefaultConfigDir()
	}
	return filepath.Join(dir, configFileName), false
}

func fileInDir(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, configFileName)
	}
	return path
}

// GetDefaultConfigDir returns the OS specific config directory.
func GetDefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		// docker images mount the config volume at /config
		if filepath.Clean(xdg) == "/config" {
			return xdg
		}
		return filepath.Join(xdg, appDirName)
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", appDirName)
	}
	return filepath.Join(dir, appDirName)
}

// applyOverrides sets key=value pairs from the command line.
func applyOverrides(v *viper.Viper, overrides []string) error {
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid override %q: expected key=value", kv)
		}
		v.Set(key, parseOverrideValue(strings.TrimSpace(value)))
	}
	return nil
}

func parseOverrideValue(value string) any {
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

// loadIndexers collects [indexers.<name>] tables from every source. Each
// field is read through viper so CROSS_SEED_INDEXERS_<NAME>_URL and friends
// override file values for known names.
func loadIndexers(v *viper.Viper) ([]IndexerConfig, error) {
	raw, _ := v.AllSettings()["indexers"].(map[string]any)

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	indexers := make([]IndexerConfig, 0, len(names))
	for _, name := range names {
		prefix := "indexers." + name + "."

		idx := IndexerConfig{
			Name:   name,
			URL:    strings.TrimSpace(v.GetString(prefix + "url")),
			APIKey: strings.TrimSpace(v.GetString(prefix + "apiKey")),
		}
		if idx.APIKey == "" {
			idx.APIKey = strings.TrimSpace(v.GetString(prefix + "api_key"))
		}
		if v.IsSet(prefix + "enabled") {
			enabled := v.GetBool(prefix + "enabled")
			idx.Enabled = &enabled
		}

		indexers = append(indexers, idx)
	}

	return indexers, nil
}

func normalize(cfg *Config) {
	cfg.TorrentsPath = strings.TrimSpace(cfg.TorrentsPath)
	cfg.RunMode = RunMode(strings.ToLower(strings.TrimSpace(string(cfg.RunMode))))
	cfg.TorrentMode = TorrentMode(strings.ToLower(strings.TrimSpace(string(cfg.TorrentMode))))
	cfg.RequestTimeout = timeouts.RequestTimeout(cfg.RequestTimeout)
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.PerIndexerConcurrency < 1 {
		cfg.PerIndexerConcurrency = 1
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
}

// Validate checks the settings a search run depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.TorrentsPath == "" {
		errs = append(errs, errors.New("torrentsPath is required"))
	}

	switch c.RunMode {
	case RunModeScript, RunModeDaemon:
	default:
		errs = append(errs, fmt.Errorf("unknown runMode %q", c.RunMode))
	}

	switch c.TorrentMode {
	case TorrentModeSearch:
	case TorrentModeInject:
		errs = append(errs, errors.New("torrentMode inject is not supported"))
	default:
		errs = append(errs, fmt.Errorf("unknown torrentMode %q", c.TorrentMode))
	}

	if c.RunMode == RunModeDaemon && c.Interval <= 0 {
		errs = append(errs, errors.New("interval must be positive in daemon mode"))
	}

	for _, idx := range c.Indexers {
		if idx.URL == "" {
			errs = append(errs, fmt.Errorf("indexer %q: url is required", idx.Name))
		}
	}

	return errors.Join(errs...)
}

// EnabledIndexers returns the number of indexers that will be searched.
func (c *Config) EnabledIndexers() int {
	n := 0
	for _, idx := range c.Indexers {
		if idx.IsEnabled() {
			n++
		}
	}
	return n
}
