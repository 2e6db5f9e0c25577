package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"boirates/internal/boi"
	"boirates/internal/currency"
	"boirates/internal/exrate"
)

// EnvPrefix is prepended to every environment variable, e.g. BOIRATES_TIMEOUT
const EnvPrefix = "BOIRATES"

// Keys understood by Read
const (
	KeyBaseURL      = "base_url"
	KeyTimeout      = "timeout"
	KeyDataType     = "data_type"
	KeyFormat       = "format"
	KeyOutputDir    = "output_dir"
	KeyCurrencies   = "currencies"
	KeyBases        = "bases"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeySQLiteExport = "sqlite_export"
)

// Config holds all configuration for the exchange rate fetcher.
type Config struct {
	// Rate source
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	DataType string        `mapstructure:"data_type"`
	Format   string        `mapstructure:"format"`

	// Default selection, overridden by command line flags
	Currencies []string `mapstructure:"currencies"`
	Bases      []string `mapstructure:"bases"`

	// Output
	OutputDir    string `mapstructure:"output_dir"`
	SQLiteExport bool   `mapstructure:"sqlite_export"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// New returns a viper instance with defaults, config file search paths and
// environment variable bindings installed.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyBaseURL, boi.DefaultBaseURL)
	v.SetDefault(KeyTimeout, exrate.DefaultTimeout)
	v.SetDefault(KeyDataType, boi.DefaultDataType)
	v.SetDefault(KeyFormat, string(exrate.FormatCSV))
	v.SetDefault(KeyOutputDir, ".")
	v.SetDefault(KeyCurrencies, []string{"USD", "EUR"})
	v.SetDefault(KeyBases, []string{string(currency.Home)})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeySQLiteExport, false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.boirates")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// Read loads configuration through v from defaults, a config file and
// environment variables. Environment variables take precedence over config
// file values. An explicit configFile must exist; otherwise a missing
// config.yaml is ignored.
//
// Recognised environment variables:
//   - BOIRATES_BASE_URL
//   - BOIRATES_TIMEOUT (e.g. 30s)
//   - BOIRATES_DATA_TYPE
//   - BOIRATES_FORMAT (csv or xlsx)
//   - BOIRATES_OUTPUT_DIR
//   - BOIRATES_CURRENCIES (comma separated)
//   - BOIRATES_BASES (comma separated)
//   - BOIRATES_LOG_LEVEL (debug, info, warn, error)
//   - BOIRATES_LOG_FORMAT (text or json)
//   - BOIRATES_SQLITE_EXPORT
func Read(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports every invalid key at once
func (c *Config) Validate() error {
	var invalid []string

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, KeyBaseURL)
	}
	if c.Timeout <= 0 {
		invalid = append(invalid, KeyTimeout)
	}
	if strings.TrimSpace(c.DataType) == "" {
		invalid = append(invalid, KeyDataType)
	}
	switch exrate.Format(strings.ToLower(c.Format)) {
	case exrate.FormatCSV, exrate.FormatSpreadsheet:
	default:
		invalid = append(invalid, KeyFormat)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		invalid = append(invalid, KeyOutputDir)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		invalid = append(invalid, KeyLogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		invalid = append(invalid, KeyLogFormat)
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// SourceFormat returns the requested payload format
func (c *Config) SourceFormat() exrate.Format {
	return exrate.Format(strings.ToLower(c.Format))
}

// CurrencyCodes returns the configured source currencies, normalized
func (c *Config) CurrencyCodes() []currency.Code {
	return currency.ParseList(strings.Join(c.Currencies, ","))
}

// BaseCodes returns the configured base currencies, normalized
func (c *Config) BaseCodes() []currency.Code {
	return currency.ParseList(strings.Join(c.Bases, ","))
}

// Level returns the slog level for LogLevel
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(s)))
	return level, err
}
