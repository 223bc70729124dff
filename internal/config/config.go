// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port   string
	AppEnv string

	// Origins allowed to call the API from a browser.
	AllowedOrigins []string

	// Upper bound on pipeline requests running at the same time. Requests
	// above the limit wait in chi's throttle queue.
	MaxConcurrentDownloads int

	// How long issued download links stay valid.
	LinkTTL time.Duration

	// Object storage backend: "s3" (MinIO/Backblaze B2/AWS, anything
	// S3-compatible) or "local" (files served by this process from DownloadDir).
	StorageBackend string

	StorageEndpoint       string
	StorageKeyID          string
	StorageApplicationKey string
	StorageBucket         string
	StorageUseSSL         bool

	// Root directory of the local backend's object store.
	DownloadDir string

	// Browser-reachable base URL of this service, used to compose local
	// download links, e.g. "http://localhost:8080".
	PublicBaseURL string

	// HMAC secret for signing local download tokens.
	LinkSigningSecret string

	// Optional yt-dlp cookie sources, to get past host-side bot checks.
	CookiesFile        string
	CookiesFromBrowser string
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	return &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		AllowedOrigins:         splitList(getEnv("ALLOWED_ORIGINS", "*")),
		MaxConcurrentDownloads: getEnvInt("MAX_CONCURRENT_DOWNLOADS", 4),
		LinkTTL:                time.Duration(getEnvInt("LINK_TTL_SECONDS", 3600)) * time.Second,

		StorageBackend:        getEnv("STORAGE_BACKEND", "s3"),
		StorageEndpoint:       getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageKeyID:          getEnv("STORAGE_KEY_ID", "minioadmin"),
		StorageApplicationKey: getEnv("STORAGE_APPLICATION_KEY", "minioadmin"),
		StorageBucket:         getEnv("STORAGE_BUCKET", "media"),
		StorageUseSSL:         getEnv("STORAGE_USE_SSL", "false") == "true",

		DownloadDir:       getEnv("DOWNLOAD_DIR", "downloads"),
		PublicBaseURL:     getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		LinkSigningSecret: getEnv("LINK_SIGNING_SECRET", "change_me_in_production"),

		CookiesFile:        getEnv("COOKIES_FILE", ""),
		CookiesFromBrowser: getEnv("COOKIES_FROM_BROWSER", ""),
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: ignoring invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
