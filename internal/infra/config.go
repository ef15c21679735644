package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	CompletionBackendOpenAI    = "openai"
	CompletionBackendSimulated = "simulated"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                  string
	Port                    string
	APISecretKey            string
	StoreBackend            string
	DatabaseURL             string
	CompletionBackend       string
	OpenAIAPIKey            string
	OpenAIModel             string
	OpenAIBaseURL           string
	OpenAIOrg               string
	OpenAIMaxTokens         int
	OpenAITimeout           time.Duration
	SimulatedLatency        time.Duration
	RateLimitWindow         time.Duration
	RateLimitMaxRequests    int
	ProcessRateLimitMax     int
	CORSAllowedOrigins      []string
	GeoIPDBPath             string
	ProcessingStaleAfter    time.Duration
	MaxNoteLength           int
	FreeMonthlyNoteLimit    int
	PremiumMonthlyNoteLimit int
	HTTPReadTimeout         time.Duration
	HTTPWriteTimeout        time.Duration
	HTTPIdleTimeout         time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                  getEnv("APP_ENV", "development"),
		Port:                    getEnv("PORT", "3000"),
		APISecretKey:            strings.TrimSpace(os.Getenv("API_SECRET_KEY")),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		OpenAIAPIKey:            strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:             getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:               os.Getenv("OPENAI_ORG"),
		OpenAIMaxTokens:         getEnvInt("OPENAI_MAX_TOKENS", 500),
		OpenAITimeout:           time.Second * time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 30)),
		SimulatedLatency:        time.Millisecond * time.Duration(getEnvInt("SIMULATED_LATENCY_MS", 0)),
		RateLimitWindow:         time.Millisecond * time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MS", 60000)),
		RateLimitMaxRequests:    getEnvInt("RATE_LIMIT_MAX_REQUESTS", 20),
		ProcessRateLimitMax:     getEnvInt("PROCESS_RATE_LIMIT_MAX", 10),
		CORSAllowedOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", "*"),
		GeoIPDBPath:             os.Getenv("GEOIP_DB_PATH"),
		ProcessingStaleAfter:    time.Second * time.Duration(getEnvInt("PROCESSING_STALE_AFTER_SECONDS", 300)),
		MaxNoteLength:           getEnvInt("MAX_NOTE_LENGTH", 10000),
		FreeMonthlyNoteLimit:    getEnvInt("FREE_MONTHLY_NOTE_LIMIT", 20),
		PremiumMonthlyNoteLimit: getEnvInt("PREMIUM_MONTHLY_NOTE_LIMIT", 0),
		HTTPReadTimeout:         time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:        time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:         time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.APISecretKey == "" {
		return nil, fmt.Errorf("API_SECRET_KEY is required")
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND")))
	switch cfg.StoreBackend {
	case "":
		cfg.StoreBackend = StoreBackendMemory
		if cfg.DatabaseURL != "" {
			cfg.StoreBackend = StoreBackendPostgres
		}
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", StoreBackendPostgres)
		}
	case StoreBackendMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	// An empty value is resolved in main once the integration token store has been consulted.
	cfg.CompletionBackend = strings.ToLower(strings.TrimSpace(os.Getenv("COMPLETION_BACKEND")))
	switch cfg.CompletionBackend {
	case "", CompletionBackendOpenAI, CompletionBackendSimulated:
	default:
		return nil, fmt.Errorf("unsupported COMPLETION_BACKEND %q", cfg.CompletionBackend)
	}

	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.RateLimitMaxRequests <= 0 {
		cfg.RateLimitMaxRequests = 20
	}
	if cfg.ProcessRateLimitMax <= 0 {
		cfg.ProcessRateLimitMax = 10
	}
	if cfg.MaxNoteLength <= 0 {
		cfg.MaxNoteLength = 10000
	}

	return cfg, nil
}

// IsDevelopment reports whether verbose errors and console logging are enabled.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
