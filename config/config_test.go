package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/makkaratutka/internal/menu"
	apperrors "sjsage522/makkaratutka/pkg/errors"
)

var configKeys = []string{
	"MAKKARA_CONFIG", "CITY", "USER_LAT", "USER_LON", "MAX_SEARCH_RADIUS_KM",
	"SEARCH_MODE", "LOCALE", "WEEK_DAY_HASHES", "LISTING_BASE_URL",
	"RENDERER_ADDR", "RENDER_WAIT_MS", "RATE_LIMIT_BLOCK_SECONDS", "GEOCODER_URL",
	"GEOCODER_USER_AGENT", "GEOCODE_CACHE_TTL_SECONDS", "MEMCACHE_ADDR",
	"REDIS_ADDR", "REDIS_DB", "REDIS_STREAM", "REDIS_STREAM_MAX_LENGTH",
	"SCHEDULE", "MAKKARA_ENVIRONMENT",
}

// clearEnv blanks every key so the developer's shell does not leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)

	// Test with default values
	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Jyväskylä", config.City)
	assert.Nil(t, config.UserLocation())
	assert.Equal(t, 30.0, config.MaxSearchRadiusKm)
	assert.Equal(t, menu.ModeToday, config.Mode())
	assert.Equal(t, "fi", config.Locale)
	assert.Equal(t, []string{"5", "6", "7", "8", "9"}, config.WeekDayHashes)
	assert.Equal(t, "https://www.lounaat.info", config.ListingBaseURL)
	assert.Equal(t, 9*time.Second, config.RenderWait())
	assert.Equal(t, 24*time.Hour, config.GeocodeCacheTTL())
	assert.Empty(t, config.MemcacheAddr)
	assert.Empty(t, config.RedisAddr)
	assert.Empty(t, config.Schedule)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("CITY", "Tampere")
	t.Setenv("USER_LAT", "61,4978")
	t.Setenv("USER_LON", "23.7610")
	t.Setenv("MAX_SEARCH_RADIUS_KM", "12.5")
	t.Setenv("SEARCH_MODE", "week")
	t.Setenv("WEEK_DAY_HASHES", "5, 6 ,7")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")
	t.Setenv("RENDER_WAIT_MS", "1500")
	t.Setenv("SCHEDULE", "0 10 * * 1-5")
	t.Setenv("MAKKARA_ENVIRONMENT", "production")

	config, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Tampere", config.City)
	require.NotNil(t, config.UserLocation())
	assert.Equal(t, menu.Coordinates{Lat: 61.4978, Lon: 23.7610}, *config.UserLocation())
	assert.Equal(t, 12.5, config.MaxSearchRadiusKm)
	assert.Equal(t, menu.ModeWeekDay, config.Mode())
	assert.Equal(t, []string{"5", "6", "7"}, config.WeekDayHashes)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.Equal(t, 1500*time.Millisecond, config.RenderWait())
	assert.Equal(t, "0 10 * * 1-5", config.Schedule)
	assert.Equal(t, "production", config.Environment)
	assert.NoError(t, config.Validate())
}

func TestLoadConfigInvalidNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "one")

	_, err := LoadConfig()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "makkara.yaml")
	content := `city: Oulu
user_lat: 65.0121
user_lon: 25.4651
max_search_radius_km: 10
search_mode: week
week_day_hashes: ["6", "8"]
redis_addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("MAKKARA_CONFIG", path)
	t.Setenv("MAX_SEARCH_RADIUS_KM", "15")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Oulu", config.City)
	assert.Equal(t, &menu.Coordinates{Lat: 65.0121, Lon: 25.4651}, config.UserLocation())
	assert.Equal(t, 15.0, config.MaxSearchRadiusKm, "environment overrides the file")
	assert.Equal(t, menu.ModeWeekDay, config.Mode())
	assert.Equal(t, []string{"6", "8"}, config.WeekDayHashes)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, "fi", config.Locale, "unset keys keep their defaults")
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAKKARA_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestValidate(t *testing.T) {
	lat, lon, bad := 62.24, 25.75, 123.0

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown mode", func(c *Config) { c.SearchMode = "month" }},
		{"no city or location", func(c *Config) { c.City = " " }},
		{"latitude without longitude", func(c *Config) { c.UserLat = &lat }},
		{"latitude out of range", func(c *Config) { c.UserLat, c.UserLon = &bad, &lon }},
		{"zero radius", func(c *Config) { c.MaxSearchRadiusKm = 0 }},
		{"no day hashes", func(c *Config) { c.WeekDayHashes = nil }},
		{"no listing url", func(c *Config) { c.ListingBaseURL = "" }},
		{"negative ttl", func(c *Config) { c.GeocodeCacheTTLSeconds = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration), "got %v", err)
		})
	}

	t.Run("location without city", func(t *testing.T) {
		c := Default()
		c.City = ""
		c.UserLat, c.UserLon = &lat, &lon
		assert.NoError(t, c.Validate())
	})
}
