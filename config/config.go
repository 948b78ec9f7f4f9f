// Package config loads parlance settings from a YAML file, PARLANCE_*
// environment variables and the providers' conventional API key variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the full parlance configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Summary  SummaryConfig  `mapstructure:"summary"`
	Store    StoreConfig    `mapstructure:"store"`
	Registry RegistryConfig `mapstructure:"registry"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Addr               string        `mapstructure:"addr"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`

	// MaxConcurrentUpstream caps concurrent start-session and summary requests.
	MaxConcurrentUpstream int `mapstructure:"max_concurrent_upstream"`
}

// RealtimeConfig contains the realtime-voice provisioning settings.
type RealtimeConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	Model              string `mapstructure:"model"`
	TranscriptionModel string `mapstructure:"transcription_model"`
}

// SummaryConfig selects the text-generation provider used for reports.
type SummaryConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Stream      bool    `mapstructure:"stream"`
}

// StoreConfig selects where memories and session records live.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// RegistryConfig points at an optional persona overrides file.
type RegistryConfig struct {
	PersonasFile string `mapstructure:"personas_file"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Provider names accepted by SummaryConfig.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Store drivers accepted by StoreConfig.Driver.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PARLANCE"

var keys = []string{
	"server.addr",
	"server.cors_allowed_origins",
	"server.read_timeout",
	"server.write_timeout",
	"server.shutdown_timeout",
	"server.max_concurrent_upstream",
	"realtime.base_url",
	"realtime.model",
	"realtime.transcription_model",
	"summary.provider",
	"summary.model",
	"summary.base_url",
	"summary.temperature",
	"summary.max_tokens",
	"summary.stream",
	"store.driver",
	"store.path",
	"registry.personas_file",
	"log.level",
	"log.format",
}

// BindEnv registers every key with viper so that environment variables are
// honored by Unmarshal even when no config file sets them.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("realtime.api_key", envName("realtime.api_key"), "OPENAI_API_KEY")
	_ = v.BindEnv("summary.api_key", envName("summary.api_key"))
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SetDefaults registers defaults for keys where zero is a meaningful value, so
// an explicit 0 in a file or the environment is kept.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.max_concurrent_upstream", DefaultMaxConcurrentUpstream)
	v.SetDefault("summary.temperature", DefaultTemperature)
}

// Load builds a Config from v. A nil v uses the global viper instance.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	BindEnv(v)
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg, os.Getenv)

	return cfg, nil
}

// Defaults applied through SetDefaults.
const (
	DefaultMaxConcurrentUpstream = 32
	DefaultTemperature           = 0.7
)

// applyDefaults sets default values for unset fields.
func applyDefaults(cfg *Config, getenv func(string) string) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 2 * time.Minute
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Summary.Provider == "" {
		cfg.Summary.Provider = ProviderOpenAI
	}
	cfg.Summary.Provider = strings.ToLower(cfg.Summary.Provider)

	// Provider-specific key fallback.
	if cfg.Summary.APIKey == "" {
		switch cfg.Summary.Provider {
		case ProviderOpenAI:
			cfg.Summary.APIKey = getenv("OPENAI_API_KEY")
		case ProviderAnthropic:
			cfg.Summary.APIKey = getenv("ANTHROPIC_API_KEY")
		case ProviderGemini:
			cfg.Summary.APIKey = getenv("GEMINI_API_KEY")
			if cfg.Summary.APIKey == "" {
				cfg.Summary.APIKey = getenv("GOOGLE_API_KEY")
			}
		}
	}
	if cfg.Summary.MaxTokens == 0 {
		cfg.Summary.MaxTokens = 2000
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverMemory
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	if cfg.Store.Driver == DriverSQLite && cfg.Store.Path == "" {
		cfg.Store.Path = "parlance.db"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Validate validates the configuration. Missing API keys are not errors: the
// affected operations report a configuration error when invoked.
func (c *Config) Validate() error {
	switch c.Summary.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("invalid summary provider: %s (must be openai, anthropic, or gemini)", c.Summary.Provider)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be memory or sqlite)", c.Store.Driver)
	}

	if c.Server.MaxConcurrentUpstream < 0 {
		return fmt.Errorf("server max_concurrent_upstream must not be negative")
	}

	if c.Summary.Temperature < 0 || c.Summary.Temperature > 2 {
		return fmt.Errorf("summary temperature must be between 0 and 2")
	}
	if c.Summary.MaxTokens < 0 {
		return fmt.Errorf("summary max_tokens must not be negative")
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Log.Format)
	}

	return nil
}
