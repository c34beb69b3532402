package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"mashalpipes.in/Website/pkg/config"
)

const defaultPlaceholder = "https://via.placeholder.com/800"

type WebConfig struct {
	config.GlobalConfig
	APIBaseURL     string
	APIPrefix      string
	ImageBaseURL   string
	PlaceholderURL string
	FetchTimeout   time.Duration
}

// APIURL is the root of the img-service routes, e.g. http://img-service:8083/api.
func (c *WebConfig) APIURL() string {
	return c.APIBaseURL + c.APIPrefix
}

func LoadWebConfig() *WebConfig {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	apiBase := strings.TrimRight(config.GetEnv("API_BASE_URL"), "/")
	return &WebConfig{
		GlobalConfig:   *config.LoadGlobalConfig(),
		APIBaseURL:     apiBase,
		APIPrefix:      strings.TrimRight("/"+strings.Trim(config.GetEnvOrDefault("API_PREFIX", "/api"), "/"), "/"),
		ImageBaseURL:   strings.TrimRight(config.GetEnvOrDefault("IMAGE_BASE_URL", apiBase), "/"),
		PlaceholderURL: config.GetEnvOrDefault("PLACEHOLDER_IMAGE_URL", defaultPlaceholder),
		FetchTimeout:   config.GetEnvDuration("FETCH_TIMEOUT", 10*time.Second),
	}
}
