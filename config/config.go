package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Analyze   AnalyzeConfig
	LLM       LLMConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls landing page retrieval.
type FetchConfig struct {
	// Timeout bounds the whole header-profile attempt sequence, not each attempt.
	Timeout time.Duration // default: 12s

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 // default: 10 MiB

	// Proxy is an optional http(s) proxy URL for outbound page fetches.
	Proxy string
}

// AnalyzeConfig controls input validation for /analyze.
type AnalyzeConfig struct {
	// MinTextLength is the minimum number of characters of effective text.
	MinTextLength int // default: 20

	// MaxTextLength is the hard cap applied before embedding text in the prompt.
	MaxTextLength int // default: 6000
}

// LLMConfig controls the OpenAI-compatible model endpoint.
type LLMConfig struct {
	BaseURL     string        // default: "https://api.groq.com/openai/v1"
	Model       string        // default: "llama-3.1-8b-instant"
	Temperature float32       // default: 0.5
	Timeout     time.Duration // default: 60s

	// APIKeyEnv names the environment variable holding the credential.
	// The value is read at request time, never cached.
	APIKeyEnv string // default: "GROQ_API_KEY"
}

// APIKey reads the credential from the environment. It returns "" when the
// variable is unset or still holds a known placeholder.
func (c LLMConfig) APIKey() string {
	key := strings.TrimSpace(os.Getenv(c.APIKeyEnv))
	if IsPlaceholderKey(key) {
		return ""
	}
	return key
}

var placeholderKeys = map[string]struct{}{
	"your_api_key_here": {},
	"your-api-key":      {},
	"changeme":          {},
	"xxx":               {},
}

// IsPlaceholderKey reports whether key is empty or a template value.
func IsPlaceholderKey(key string) bool {
	if key == "" {
		return true
	}
	_, ok := placeholderKeys[strings.ToLower(key)]
	return ok
}

// RateLimitConfig controls per-client rate limiting of the API.
type RateLimitConfig struct {
	// Enabled toggles the limiter.
	Enabled bool // default: true

	// RequestsPerSecond is the sustained rate per client IP.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per client IP.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("CROAUDIT_HOST", "0.0.0.0"),
			Port: envIntOr("CROAUDIT_PORT", 8080),
			Mode: envOr("CROAUDIT_MODE", "release"),
		},
		Fetch: FetchConfig{
			Timeout:      envDurationOr("CROAUDIT_FETCH_TIMEOUT", 12*time.Second),
			MaxBodyBytes: int64(envIntOr("CROAUDIT_FETCH_MAX_BODY", 10*1024*1024)),
			Proxy:        os.Getenv("CROAUDIT_PROXY"),
		},
		Analyze: AnalyzeConfig{
			MinTextLength: envIntOr("CROAUDIT_MIN_TEXT_LENGTH", 20),
			MaxTextLength: envIntOr("CROAUDIT_MAX_TEXT_LENGTH", 6000),
		},
		LLM: LLMConfig{
			BaseURL:     envOr("CROAUDIT_LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       envOr("CROAUDIT_LLM_MODEL", "llama-3.1-8b-instant"),
			Temperature: float32(envFloatOr("CROAUDIT_LLM_TEMPERATURE", 0.5)),
			Timeout:     envDurationOr("CROAUDIT_LLM_TIMEOUT", 60*time.Second),
			APIKeyEnv:   envOr("CROAUDIT_LLM_API_KEY_ENV", "GROQ_API_KEY"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           envBoolOr("CROAUDIT_RATE_ENABLED", true),
			RequestsPerSecond: envFloatOr("CROAUDIT_RATE_RPS", 2.0),
			Burst:             envIntOr("CROAUDIT_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("CROAUDIT_LOG_LEVEL", "info"),
			Format: envOr("CROAUDIT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
