package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the GenStudio server.
type Config struct {
	Port      int
	Version   string
	Service   ServiceConfig
	Video     VideoConfig
	Telemetry TelemetryConfig
}

// ServiceConfig configures the upstream generative-AI service.
type ServiceConfig struct {
	// APIKey is the service credential. Mandatory; Load fails without it.
	APIKey string
	// BaseURL is the API root, overridable for tests.
	BaseURL string

	TextModel  string
	ImageModel string
	VideoModel string

	// ImageCount is the number of images requested per generation.
	ImageCount int
}

// VideoConfig bounds the long-running video generation poll loop.
type VideoConfig struct {
	PollInterval time.Duration
	// MaxPolls caps the poll loop; exceeding it surfaces a timeout error
	// instead of looping forever.
	MaxPolls int
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible
// defaults. The API key has no default: a missing credential is a fatal
// startup error, never a degraded mode.
func Load() (*Config, error) {
	apiKey := os.Getenv("GENSTUDIO_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GENSTUDIO_API_KEY environment variable not set")
	}

	return &Config{
		Port:    envInt("GENSTUDIO_PORT", 8080),
		Version: envStr("GENSTUDIO_VERSION", "0.1.0"),
		Service: ServiceConfig{
			APIKey:     apiKey,
			BaseURL:    envStr("GENSTUDIO_API_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			TextModel:  envStr("GENSTUDIO_TEXT_MODEL", "gemini-2.5-flash"),
			ImageModel: envStr("GENSTUDIO_IMAGE_MODEL", "imagen-4.0-generate-001"),
			VideoModel: envStr("GENSTUDIO_VIDEO_MODEL", "veo-2.0-generate-001"),
			ImageCount: envInt("GENSTUDIO_IMAGE_COUNT", 1),
		},
		Video: VideoConfig{
			PollInterval: envDur("GENSTUDIO_VIDEO_POLL_INTERVAL", 10*time.Second),
			MaxPolls:     envInt("GENSTUDIO_VIDEO_MAX_POLLS", 90),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "genstudio-server"),
		},
	}, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
