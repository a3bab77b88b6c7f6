// Package config loads mailsweep settings from ~/.config/mailsweep/config.yaml,
// MAILSWEEP_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"mailsweep/internal/catalog"
	"mailsweep/internal/gmail"
	"mailsweep/internal/query"
)

const (
	KeyBackend         = "backend"
	KeyEndpoint        = "endpoint"
	KeyTimeRange       = "time_range"
	KeyEstimateTimeout = "estimate_timeout"
	KeyPaceInterval    = "pace_interval"
	KeyLogLevel        = "log_level"
	KeyExportDir       = "export_dir"
	KeyCategories      = "categories"
)

const (
	BackendGmail = "gmail"
	BackendHTTP  = "http"
)

type Config struct {
	Dir             string
	Backend         string
	Endpoint        string
	TimeRange       query.TimeRange
	EstimateTimeout time.Duration
	PaceInterval    time.Duration
	LogLevel        string
	ExportDir       string
	Rules           []catalog.SenderRule
}

// LogFile is where the TUI sends its log output.
func (c Config) LogFile() string { return filepath.Join(c.Dir, "mailsweep.log") }

// Catalog returns the built-in categories plus configured rules.
func (c Config) Catalog() (*catalog.Catalog, error) { return catalog.WithRules(c.Rules) }

// DefaultDir is $XDG_CONFIG_HOME/mailsweep or ~/.config/mailsweep.
func DefaultDir() (string, error) {
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		return filepath.Join(x, "mailsweep"), nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mailsweep"), nil
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyBackend, BackendGmail)
	v.SetDefault(KeyEndpoint, "")
	v.SetDefault(KeyTimeRange, "30")
	v.SetDefault(KeyEstimateTimeout, gmail.DefaultTimeout)
	v.SetDefault(KeyPaceInterval, time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyExportDir, ".")
	v.SetEnvPrefix("mailsweep")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes it. With an empty file the
// default location is tried and a missing file is not an error; an explicit
// file must exist.
func Load(v *viper.Viper, file string) (Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return Config{}, err
	}
	if file != "" {
		expanded, err := homedir.Expand(file)
		if err != nil {
			return Config{}, err
		}
		v.SetConfigFile(expanded)
		dir = filepath.Dir(expanded)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return Decode(v, dir)
}

// Decode validates the values held by v.
func Decode(v *viper.Viper, dir string) (Config, error) {
	cfg := Config{
		Dir:             dir,
		Backend:         strings.ToLower(v.GetString(KeyBackend)),
		Endpoint:        v.GetString(KeyEndpoint),
		EstimateTimeout: v.GetDuration(KeyEstimateTimeout),
		PaceInterval:    v.GetDuration(KeyPaceInterval),
		LogLevel:        v.GetString(KeyLogLevel),
		ExportDir:       v.GetString(KeyExportDir),
	}
	switch cfg.Backend {
	case BackendGmail:
	case BackendHTTP:
		if cfg.Endpoint == "" {
			return Config{}, fmt.Errorf("backend %q needs %s", BackendHTTP, KeyEndpoint)
		}
	default:
		return Config{}, fmt.Errorf("%s must be %q or %q, got %q", KeyBackend, BackendGmail, BackendHTTP, cfg.Backend)
	}
	tr, err := query.ParseTimeRange(v.GetString(KeyTimeRange))
	if err != nil {
		return Config{}, err
	}
	cfg.TimeRange = tr
	if cfg.EstimateTimeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", KeyEstimateTimeout)
	}
	if cfg.PaceInterval < 0 {
		return Config{}, fmt.Errorf("%s must not be negative", KeyPaceInterval)
	}
	if err := v.UnmarshalKey(KeyCategories, &cfg.Rules); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", KeyCategories, err)
	}
	return cfg, nil
}
