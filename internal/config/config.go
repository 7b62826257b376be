// Package config loads tung's settings from defaults, an optional YAML file
// and TUNG_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tgienger/tung/internal/models"
)

// EnvPrefix namespaces environment overrides, e.g. TUNG_API_BASE_URL
const EnvPrefix = "TUNG"

type API struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

type Search struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type Geo struct {
	Provider          string        `mapstructure:"provider"` // ip | static | none
	IPURL             string        `mapstructure:"ip_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Latitude          float64       `mapstructure:"latitude"` // static provider
	Longitude         float64       `mapstructure:"longitude"`
	FallbackLatitude  float64       `mapstructure:"fallback_latitude"`
	FallbackLongitude float64       `mapstructure:"fallback_longitude"`
	GeocoderURL       string        `mapstructure:"geocoder_url"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// Fallback is the position used until (or instead of) a located one
func (g Geo) Fallback() models.Coordinates {
	return models.Coordinates{Latitude: g.FallbackLatitude, Longitude: g.FallbackLongitude}
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Cache struct {
	Backend     string        `mapstructure:"backend"` // sqlite | memory | redis | none
	CategoryTTL time.Duration `mapstructure:"category_ttl"`
	NameTTL     time.Duration `mapstructure:"name_ttl"`
	Redis       Redis         `mapstructure:"redis"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Config is the complete application configuration
type Config struct {
	DataDir string `mapstructure:"data_dir"`
	API     API    `mapstructure:"api"`
	Search  Search `mapstructure:"search"`
	Geo     Geo    `mapstructure:"geo"`
	Cache   Cache  `mapstructure:"cache"`
	Log     Log    `mapstructure:"log"`
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("data_dir", dataDir)

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.rate_per_second", 10.0)
	v.SetDefault("api.burst", 20)

	v.SetDefault("search.debounce", 300*time.Millisecond)

	v.SetDefault("geo.provider", "ip")
	v.SetDefault("geo.ip_url", "http://ip-api.com/json")
	v.SetDefault("geo.timeout", 5*time.Second)
	v.SetDefault("geo.latitude", 0.0)
	v.SetDefault("geo.longitude", 0.0)
	v.SetDefault("geo.fallback_latitude", 43.4723)
	v.SetDefault("geo.fallback_longitude", -80.5449)
	v.SetDefault("geo.geocoder_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geo.user_agent", "tung")

	v.SetDefault("cache.backend", "sqlite")
	v.SetDefault("cache.category_ttl", time.Hour)
	v.SetDefault("cache.name_ttl", 10*time.Minute)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// Load reads configuration. An explicit path must exist; without one the
// default location is used when present.
func Load(path string) (*Config, error) {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, dataDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		if p, ok := defaultConfigFile(); ok {
			path = p
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	switch c.Cache.Backend {
	case "sqlite", "memory", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of sqlite, memory, redis, none", c.Cache.Backend))
	}
	switch c.Geo.Provider {
	case "ip", "static", "none":
	default:
		errs = append(errs, fmt.Errorf("geo.provider %q is not one of ip, static, none", c.Geo.Provider))
	}
	return errors.Join(errs...)
}

// LogFile is the log destination, defaulting into the data directory
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.DataDir, "tung.log")
}

// DefaultDataDir returns $XDG_DATA_HOME/tung or ~/.local/share/tung
func DefaultDataDir() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "tung"), nil
}

func defaultConfigFile() (string, bool) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	p := filepath.Join(dir, "tung", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}
