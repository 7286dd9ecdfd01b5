package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	// Upstream generation API
	UpstreamURL string // base URL, joined with /<model>/text-to-image
	StylizedURL string // anime-oriented endpoint, takes the full request as-is
	APIKey      string // sent as Authorization; empty string if unset (not validated)
	// Storage
	DataDir       string // prompt book and (when persisting) generated images
	PublicBaseURL string // prefix for stored image URLs
	PersistImages bool   // true: upload decoded images and serve public URLs
	// Ratings (feedback API); disabled when empty
	DatabaseURL string
	// Logging
	LogDir string // when set, logs are also written to rotated files
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	port := getEnv("PORT", "8080")

	return &Config{
		Port:          port,
		Environment:   env,
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
		UpstreamURL:   getEnv("UPSTREAM_URL", "https://api.stability.ai/v1alpha/generation"),
		StylizedURL:   getEnv("STYLIZED_UPSTREAM_URL", "https://api.diffusion.chat/anime"),
		APIKey:        getEnv("API_KEY", ""),
		DataDir:       getEnv("DATA_DIR", "data"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		PersistImages: getEnv("PERSIST_IMAGES", "false") == "true",
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		LogDir:        getEnv("LOG_DIR", ""),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
