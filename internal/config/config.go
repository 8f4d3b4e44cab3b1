package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"skywatch/internal/models"
)

// ServiceToggles enables or disables individual data providers.
type ServiceToggles struct {
	APOD      bool `mapstructure:"apod"`
	ISSPasses bool `mapstructure:"iss_passes"`
	NeoWs     bool `mapstructure:"neows"`
	EPIC      bool `mapstructure:"epic"`
	MoonPhase bool `mapstructure:"moon_phase"`
}

// Endpoints overrides provider base URLs, mainly for tests and mirrors.
type Endpoints struct {
	APOD      string `mapstructure:"apod"`
	NeoWs     string `mapstructure:"neows"`
	EPIC      string `mapstructure:"epic"`
	ISSPasses string `mapstructure:"iss_passes"`
	MoonPhase string `mapstructure:"moon_phase"`
	TLESource string `mapstructure:"tle_source"`
}

type Config struct {
	Port                   string          `mapstructure:"port"`
	Location               models.Location `mapstructure:"location"`
	NASAAPIKey             string          `mapstructure:"nasa_api_key"`
	CacheTTLMinutes        int             `mapstructure:"cache_ttl_minutes"`
	RefreshIntervalMinutes int             `mapstructure:"refresh_interval_minutes"`
	ForecastDays           int             `mapstructure:"forecast_days"`
	Services               ServiceToggles  `mapstructure:"services"`
	Endpoints              Endpoints       `mapstructure:"endpoints"`
	DBPath                 string          `mapstructure:"db_path"`
	RedisAddr              string          `mapstructure:"redis_addr"`
	TLECacheDir            string          `mapstructure:"tle_cache_dir"`
}

// Load reads the JSON config file and applies env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.AutomaticEnv()

	v.SetDefault("port", "8096")
	v.SetDefault("cache_ttl_minutes", 360)
	v.SetDefault("refresh_interval_minutes", 360)
	v.SetDefault("forecast_days", 7)
	v.SetDefault("tle_cache_dir", "tle-cache")
	v.SetDefault("services.apod", true)
	v.SetDefault("services.iss_passes", true)
	v.SetDefault("services.neows", true)
	v.SetDefault("services.epic", true)
	v.SetDefault("services.moon_phase", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Env overrides for secrets and deployment knobs.
	if key := os.Getenv("NASA_API_KEY"); key != "" {
		cfg.NASAAPIKey = key
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}

	if err := cfg.Location.Validate(); err != nil {
		return nil, fmt.Errorf("invalid location in config: %w", err)
	}
	if cfg.CacheTTLMinutes <= 0 {
		return nil, fmt.Errorf("cache_ttl_minutes must be positive, got %d", cfg.CacheTTLMinutes)
	}
	if cfg.RefreshIntervalMinutes <= 0 {
		return nil, fmt.Errorf("refresh_interval_minutes must be positive, got %d", cfg.RefreshIntervalMinutes)
	}

	return &cfg, nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}
