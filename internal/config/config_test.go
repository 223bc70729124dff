package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ALLOWED_ORIGINS", "MAX_CONCURRENT_DOWNLOADS",
		"LINK_TTL_SECONDS", "STORAGE_BACKEND",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 4, cfg.MaxConcurrentDownloads)
	assert.Equal(t, time.Hour, cfg.LinkTTL)
	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.False(t, cfg.IsProduction())
}

func TestLoadParsesValues(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("LINK_TTL_SECONDS", "60")
	t.Setenv("MAX_CONCURRENT_DOWNLOADS", "8")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.LinkTTL)
	assert.Equal(t, 8, cfg.MaxConcurrentDownloads)
	assert.True(t, cfg.IsProduction())
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_DOWNLOADS", "not-a-number")
	t.Setenv("LINK_TTL_SECONDS", "-5")

	cfg := Load()
	assert.Equal(t, 4, cfg.MaxConcurrentDownloads)
	assert.Equal(t, time.Hour, cfg.LinkTTL)
}
