package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sjsage522/makkaratutka/helpers"
	"sjsage522/makkaratutka/internal/menu"
	apperrors "sjsage522/makkaratutka/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Search configuration
	City              string   `yaml:"city"`
	UserLat           *float64 `yaml:"user_lat"`
	UserLon           *float64 `yaml:"user_lon"`
	MaxSearchRadiusKm float64  `yaml:"max_search_radius_km"`
	SearchMode        string   `yaml:"search_mode"`
	Locale            string   `yaml:"locale"`
	WeekDayHashes     []string `yaml:"week_day_hashes"`

	// Listing site configuration
	ListingBaseURL        string `yaml:"listing_base_url"`
	RendererAddr          string `yaml:"renderer_addr"`
	RenderWaitMS          int    `yaml:"render_wait_ms"`
	RateLimitBlockSeconds int    `yaml:"rate_limit_block_seconds"`

	// Geocoder configuration
	GeocoderURL            string `yaml:"geocoder_url"`
	GeocoderUserAgent      string `yaml:"geocoder_user_agent"`
	GeocodeCacheTTLSeconds int    `yaml:"geocode_cache_ttl_seconds"`

	// Memcache configuration, empty disables caching
	MemcacheAddr string `yaml:"memcache_addr"`

	// Redis configuration, empty disables publishing
	RedisAddr            string `yaml:"redis_addr"`
	RedisDB              int    `yaml:"redis_db"`
	RedisStream          string `yaml:"redis_stream"`
	RedisStreamMaxLength int    `yaml:"redis_stream_max_length"`

	// Cron schedule, empty runs a single search
	Schedule string `yaml:"schedule"`

	// Environment
	Environment string `yaml:"environment"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		City:                   "Jyväskylä",
		MaxSearchRadiusKm:      30,
		SearchMode:             string(menu.ModeToday),
		Locale:                 "fi",
		WeekDayHashes:          []string{"5", "6", "7", "8", "9"},
		ListingBaseURL:         "https://www.lounaat.info",
		RenderWaitMS:           9000,
		RateLimitBlockSeconds:  300,
		GeocoderURL:            "https://nominatim.openstreetmap.org",
		GeocoderUserAgent:      "makkaratutka/1.0",
		GeocodeCacheTTLSeconds: 86400,
		RedisStream:            "makkaratutka",
		RedisStreamMaxLength:   1000,
		Environment:            "development",
	}
}

// LoadConfig loads the configuration: defaults, then the YAML file named by
// MAKKARA_CONFIG if set, then environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("MAKKARA_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfiguration("read config file "+path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.NewConfiguration("parse config file "+path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.City = getEnv("CITY", c.City)
	c.SearchMode = getEnv("SEARCH_MODE", c.SearchMode)
	c.Locale = getEnv("LOCALE", c.Locale)
	if v := os.Getenv("WEEK_DAY_HASHES"); v != "" {
		c.WeekDayHashes = helpers.SplitList(v)
	}
	c.ListingBaseURL = getEnv("LISTING_BASE_URL", c.ListingBaseURL)
	c.RendererAddr = getEnv("RENDERER_ADDR", c.RendererAddr)
	c.GeocoderURL = getEnv("GEOCODER_URL", c.GeocoderURL)
	c.GeocoderUserAgent = getEnv("GEOCODER_USER_AGENT", c.GeocoderUserAgent)
	c.MemcacheAddr = getEnv("MEMCACHE_ADDR", c.MemcacheAddr)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisStream = getEnv("REDIS_STREAM", c.RedisStream)
	c.Schedule = getEnv("SCHEDULE", c.Schedule)
	c.Environment = getEnv("MAKKARA_ENVIRONMENT", c.Environment)

	var err error
	if c.UserLat, err = getEnvFloatPtr("USER_LAT", c.UserLat); err != nil {
		return err
	}
	if c.UserLon, err = getEnvFloatPtr("USER_LON", c.UserLon); err != nil {
		return err
	}
	if c.MaxSearchRadiusKm, err = getEnvFloat("MAX_SEARCH_RADIUS_KM", c.MaxSearchRadiusKm); err != nil {
		return err
	}

	ints := []struct {
		key   string
		value *int
	}{
		{"RENDER_WAIT_MS", &c.RenderWaitMS},
		{"RATE_LIMIT_BLOCK_SECONDS", &c.RateLimitBlockSeconds},
		{"GEOCODE_CACHE_TTL_SECONDS", &c.GeocodeCacheTTLSeconds},
		{"REDIS_DB", &c.RedisDB},
		{"REDIS_STREAM_MAX_LENGTH", &c.RedisStreamMaxLength},
	}
	for _, i := range ints {
		if *i.value, err = getEnvInt(i.key, *i.value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the configuration for values the search cannot run with
func (c *Config) Validate() error {
	if _, err := menu.ParseMode(c.SearchMode); err != nil {
		return apperrors.NewConfiguration("SEARCH_MODE", err)
	}
	if strings.TrimSpace(c.City) == "" && c.UserLocation() == nil {
		return apperrors.NewConfiguration("CITY or USER_LAT/USER_LON must be set", nil)
	}
	if (c.UserLat == nil) != (c.UserLon == nil) {
		return apperrors.NewConfiguration("USER_LAT and USER_LON must be set together", nil)
	}
	if c.UserLat != nil && (*c.UserLat < -90 || *c.UserLat > 90) {
		return apperrors.NewConfiguration(fmt.Sprintf("USER_LAT %v out of range", *c.UserLat), nil)
	}
	if c.UserLon != nil && (*c.UserLon < -180 || *c.UserLon > 180) {
		return apperrors.NewConfiguration(fmt.Sprintf("USER_LON %v out of range", *c.UserLon), nil)
	}
	if c.MaxSearchRadiusKm <= 0 {
		return apperrors.NewConfiguration("MAX_SEARCH_RADIUS_KM must be positive", nil)
	}
	if len(c.WeekDayHashes) == 0 {
		return apperrors.NewConfiguration("WEEK_DAY_HASHES must not be empty", nil)
	}
	if c.ListingBaseURL == "" {
		return apperrors.NewConfiguration("LISTING_BASE_URL must be set", nil)
	}
	if c.RenderWaitMS < 0 || c.RateLimitBlockSeconds < 0 || c.GeocodeCacheTTLSeconds < 0 || c.RedisStreamMaxLength < 0 {
		return apperrors.NewConfiguration("durations and lengths must not be negative", nil)
	}
	return nil
}

// Mode returns the parsed search mode, today for unknown values
func (c *Config) Mode() menu.Mode {
	mode, err := menu.ParseMode(c.SearchMode)
	if err != nil {
		return menu.ModeToday
	}
	return mode
}

// UserLocation returns the configured user position, nil when unset
func (c *Config) UserLocation() *menu.Coordinates {
	if c.UserLat == nil || c.UserLon == nil {
		return nil
	}
	return &menu.Coordinates{Lat: *c.UserLat, Lon: *c.UserLon}
}

// RenderWait returns how long the renderer waits for the listing scripts
func (c *Config) RenderWait() time.Duration {
	return time.Duration(c.RenderWaitMS) * time.Millisecond
}

// GeocodeCacheTTL returns how long geocoding results are cached
func (c *Config) GeocodeCacheTTL() time.Duration {
	return time.Duration(c.GeocodeCacheTTLSeconds) * time.Second
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.NewConfiguration(key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil {
		return 0, apperrors.NewConfiguration(key, err)
	}
	return f, nil
}

func getEnvFloatPtr(key string, defaultValue *float64) (*float64, error) {
	if os.Getenv(key) == "" {
		return defaultValue, nil
	}
	f, err := getEnvFloat(key, 0)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
