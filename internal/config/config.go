// Package config handles application configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/bullseye/pkg/core"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"
)

// Constants for configuration
const (
	DefaultConfigPath = "./bullseye.yaml"
	EnvPrefix         = "BULLSEYE"

	ProviderYahoo = "yahoo"
	ProviderCSV   = "csv"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Port        int
	Debug       bool
	Tickers     []string
	Period      string
	Fields      []string
	Windows     []int
	FieldLines  bool
	Parallelism int
	Provider    string
	CSVDir      string
	Yahoo       YahooConfig
	Cache       CacheConfig
	Model       ModelConfig
}

// YahooConfig holds the Yahoo Finance client configuration
type YahooConfig struct {
	BaseURL string
	Timeout time.Duration
	Proxy   string
	Symbols map[string]string
}

// CacheConfig holds the history cache configuration. A zero TTL disables
// the cache.
type CacheConfig struct {
	Path string
	TTL  time.Duration
}

// ModelConfig holds the forecast model files. An empty path disables
// forecasting.
type ModelConfig struct {
	Path       string
	ScalerPath string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("debug", false)
	v.SetDefault("tickers", []string{"AAPL", "MSFT", "GOOG", "AMZN", "SPX"})
	v.SetDefault("period", core.DefaultPeriod)
	v.SetDefault("fields", []string{"Open", "High", "Low", "Close"})
	v.SetDefault("windows", append([]int(nil), core.DefaultWindows...))
	v.SetDefault("field_lines", true)
	v.SetDefault("parallelism", 4)
	v.SetDefault("provider", ProviderYahoo)
	v.SetDefault("csv_dir", "./data")
	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo.timeout", "30s")
	v.SetDefault("yahoo.proxy", "")
	v.SetDefault("cache.path", ":memory:")
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("model.path", "")
	v.SetDefault("model.scaler_path", "")
}

// Load reads the configuration file, when present, and the BULLSEYE_*
// environment variables over the defaults
func Load(configPath string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}

	return build(v)
}

func build(v *viper.Viper) (*AppConfig, error) {
	yahooTimeout, err := parseDuration(v.GetString("yahoo.timeout"))
	if err != nil {
		return nil, fmt.Errorf("yahoo.timeout: %w", err)
	}

	cacheTTL, err := parseDuration(v.GetString("cache.ttl"))
	if err != nil {
		return nil, fmt.Errorf("cache.ttl: %w", err)
	}

	windows, err := intList(v.Get("windows"))
	if err != nil {
		return nil, fmt.Errorf("windows: %w", err)
	}

	config := &AppConfig{
		Port:        v.GetInt("port"),
		Debug:       v.GetBool("debug"),
		Tickers:     splitList(v.GetStringSlice("tickers")),
		Period:      v.GetString("period"),
		Fields:      splitList(v.GetStringSlice("fields")),
		Windows:     windows,
		FieldLines:  v.GetBool("field_lines"),
		Parallelism: v.GetInt("parallelism"),
		Provider:    strings.ToLower(v.GetString("provider")),
		CSVDir:      v.GetString("csv_dir"),
		Yahoo: YahooConfig{
			BaseURL: v.GetString("yahoo.base_url"),
			Timeout: yahooTimeout,
			Proxy:   v.GetString("yahoo.proxy"),
			Symbols: v.GetStringMapString("yahoo.symbols"),
		},
		Cache: CacheConfig{
			Path: v.GetString("cache.path"),
			TTL:  cacheTTL,
		},
		Model: ModelConfig{
			Path:       v.GetString("model.path"),
			ScalerPath: v.GetString("model.scaler_path"),
		},
	}

	if config.Provider != ProviderYahoo && config.Provider != ProviderCSV {
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}

	return config, nil
}

// Settings converts the configuration into pipeline settings
func (c *AppConfig) Settings() (core.Settings, error) {
	settings := core.DefaultSettings()
	settings.Tickers = c.Tickers
	settings.Period = c.Period
	settings.FieldLines = c.FieldLines
	settings.Parallelism = c.Parallelism

	fields := make([]core.Field, 0, len(c.Fields))
	for _, name := range c.Fields {
		field, err := core.ParseField(name)
		if err != nil {
			return core.Settings{}, err
		}
		fields = append(fields, field)
	}

	settings.Features = core.FeatureSet{Fields: fields, Windows: c.Windows}
	if err := settings.Features.Validate(); err != nil {
		return core.Settings{}, err
	}

	return settings, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	return str2duration.ParseDuration(value)
}

// splitList accepts both YAML lists and comma separated environment values
func splitList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}

// intList accepts integer lists from YAML and comma separated strings from
// the environment
func intList(value any) ([]int, error) {
	var items []string

	switch typed := value.(type) {
	case []int:
		return typed, nil
	case string:
		items = splitList([]string{typed})
	case []string:
		items = splitList(typed)
	case []any:
		for _, item := range typed {
			items = append(items, fmt.Sprint(item))
		}
	default:
		return nil, fmt.Errorf("unsupported value %v", value)
	}

	result := make([]int, 0, len(items))
	for _, item := range items {
		number, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		result = append(result, number)
	}
	return result, nil
}
