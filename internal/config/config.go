package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: storage.dsn is read from
// MINDBRIDGE_STORAGE_DSN.
const EnvPrefix = "MINDBRIDGE"

type Config struct {
	Addr      string          `mapstructure:"addr"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Companion CompanionConfig `mapstructure:"companion"`
	Frontend  FrontendConfig  `mapstructure:"frontend"`
	Build     BuildConfig     `mapstructure:"build"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type StorageConfig struct {
	// Driver is memory, sqlite3, sqlite or pgx.
	Driver        string `mapstructure:"driver"`
	DSN           string `mapstructure:"dsn"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CatalogConfig struct {
	// Path to a YAML catalog; empty uses the embedded default.
	Path string `mapstructure:"path"`
}

type CacheConfig struct {
	// ValkeyAddr enables the latest-result cache when set.
	ValkeyAddr string        `mapstructure:"valkey_addr"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type CompanionConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// FrontendConfig serves the web client from the API process. StaticDir
// wins over DevURL; with neither set only the API is mounted.
type FrontendConfig struct {
	StaticDir string `mapstructure:"static_dir"`
	DevURL    string `mapstructure:"dev_url"`
}

type BuildConfig struct {
	Commit string `mapstructure:"commit"`
	Time   string `mapstructure:"time"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.migrations_dir", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 30*24*time.Hour)
	v.SetDefault("catalog.path", "")
	v.SetDefault("cache.valkey_addr", "")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("companion.provider", "none")
	v.SetDefault("companion.api_key", "")
	v.SetDefault("companion.model", "")
	v.SetDefault("companion.base_url", "")
	v.SetDefault("companion.max_tokens", 500)
	v.SetDefault("companion.temperature", 0.7)
	v.SetDefault("frontend.static_dir", "")
	v.SetDefault("frontend.dev_url", "")
	v.SetDefault("build.commit", "")
	v.SetDefault("build.time", "")
}

// Load reads defaults, then the optional YAML file at path (or
// $MINDBRIDGE_CONFIG), then MINDBRIDGE_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = envOr(EnvPrefix+"_CONFIG", "")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envOr reads a variable viper does not bind, treating blank as unset.
func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Companion.Provider = strings.ToLower(strings.TrimSpace(c.Companion.Provider))
	if c.Companion.APIKey == "" {
		switch c.Companion.Provider {
		case "openai":
			c.Companion.APIKey = envOr("OPENAI_API_KEY", "")
		case "anthropic":
			c.Companion.APIKey = envOr("ANTHROPIC_API_KEY", "")
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "memory":
	case "sqlite3", "sqlite", "pgx":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	switch c.Companion.Provider {
	case "", "none", "mock":
	case "openai", "anthropic":
		if c.Companion.APIKey == "" {
			errs = append(errs, fmt.Errorf("companion.api_key is required for provider %q", c.Companion.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown companion.provider %q", c.Companion.Provider))
	}
	if c.Companion.Temperature < 0 || c.Companion.Temperature > 1 {
		errs = append(errs, errors.New("companion.temperature must be within [0, 1]"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Frontend.DevURL != "" && !strings.HasPrefix(c.Frontend.DevURL, "http://") && !strings.HasPrefix(c.Frontend.DevURL, "https://") {
		errs = append(errs, fmt.Errorf("frontend.dev_url must be an http(s) URL, got %q", c.Frontend.DevURL))
	}
	return errors.Join(errs...)
}
