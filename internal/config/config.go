// Package config loads the merchant-info configuration shared by every sample command.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Sternrassler/merchant-api-samples/pkg/logging"
	"github.com/Sternrassler/merchant-api-samples/pkg/pagination"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// FileName is looked up in the configuration directory.
	FileName = "merchant-info.json"

	// EnvPrefix prefixes environment overrides, e.g. MERCHANT_MERCHANTID.
	EnvPrefix = "MERCHANT"

	// Scope is requested for service account credentials.
	Scope = "https://www.googleapis.com/auth/content"
)

var (
	ErrMissingMerchantID = errors.New("merchantId is required")
	ErrInvalidPageSize   = errors.New("pageSize out of range")
)

// Config is the merged file and environment configuration.
type Config struct {
	MerchantID        uint64 `mapstructure:"merchantId"`
	IsMCA             bool   `mapstructure:"isMCA"`
	AccountSampleUser string `mapstructure:"accountSampleUser"`

	Endpoint           string `mapstructure:"endpoint"`
	AccessToken        string `mapstructure:"accessToken"`
	ServiceAccountFile string `mapstructure:"serviceAccountFile"`

	RedisAddr   string `mapstructure:"redisAddr"`
	LogLevel    string `mapstructure:"logLevel"`
	LogPretty   bool   `mapstructure:"logPretty"`
	MetricsAddr string `mapstructure:"metricsAddr"`
	Trace       bool   `mapstructure:"trace"`
	MaxRetries  int    `mapstructure:"maxRetries"`
	PageSize    int    `mapstructure:"pageSize"`

	// File is the configuration file that was read, empty when none existed.
	File string `mapstructure:"-"`
}

// DefaultDir is $HOME/shopping-samples/content.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "shopping-samples", "content")
}

// Load reads path, which may be a file or a directory holding FileName.
// An empty path means DefaultDir. A missing file is not an error as long as
// the environment supplies what validation needs.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultDir()
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	v := viper.New()
	v.SetDefault("merchantId", 0)
	v.SetDefault("isMCA", false)
	v.SetDefault("accountSampleUser", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("accessToken", "")
	v.SetDefault("serviceAccountFile", "")
	v.SetDefault("redisAddr", "")
	v.SetDefault("logLevel", string(logging.LevelInfo))
	v.SetDefault("logPretty", false)
	v.SetDefault("metricsAddr", "")
	v.SetDefault("trace", false)
	v.SetDefault("maxRetries", 0)
	v.SetDefault("pageSize", pagination.DefaultPageSize)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("json")
	file := path
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		file = ""
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		if file == "" {
			return nil, fmt.Errorf("%w (no config file at %s)", err, path)
		}
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if c.MerchantID == 0 {
		return ErrMissingMerchantID
	}
	if c.PageSize < 1 || c.PageSize > pagination.MaxPageSize {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidPageSize, c.PageSize, pagination.MaxPageSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("maxRetries must be >= 0 (got %d)", c.MaxRetries)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	level, _ := logging.ParseLevel(c.LogLevel)
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.LogPretty
	return cfg
}

// TokenSource picks the credentials to send: a static access token, then a
// service account key file. It returns nil when neither is configured.
func (c *Config) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	switch {
	case c.AccessToken != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.AccessToken, TokenType: "Bearer"}), nil
	case c.ServiceAccountFile != "":
		data, err := os.ReadFile(c.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		jwt, err := google.JWTConfigFromJSON(data, Scope)
		if err != nil {
			return nil, fmt.Errorf("parse service account file: %w", err)
		}
		return jwt.TokenSource(ctx), nil
	default:
		return nil, nil
	}
}
