package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Fetch.Timeout != 12*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 12s", cfg.Fetch.Timeout)
	}
	if cfg.Analyze.MinTextLength != 20 {
		t.Errorf("Analyze.MinTextLength = %d, want 20", cfg.Analyze.MinTextLength)
	}
	if cfg.Analyze.MaxTextLength != 6000 {
		t.Errorf("Analyze.MaxTextLength = %d, want 6000", cfg.Analyze.MaxTextLength)
	}
	if cfg.LLM.Model != "llama-3.1-8b-instant" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKeyEnv != "GROQ_API_KEY" {
		t.Errorf("LLM.APIKeyEnv = %q", cfg.LLM.APIKeyEnv)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CROAUDIT_FETCH_TIMEOUT", "3s")
	t.Setenv("CROAUDIT_MIN_TEXT_LENGTH", "50")
	t.Setenv("CROAUDIT_RATE_ENABLED", "false")
	t.Setenv("CROAUDIT_PORT", "not-a-number")

	cfg := Load()

	if cfg.Fetch.Timeout != 3*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 3s", cfg.Fetch.Timeout)
	}
	if cfg.Analyze.MinTextLength != 50 {
		t.Errorf("Analyze.MinTextLength = %d, want 50", cfg.Analyze.MinTextLength)
	}
	if cfg.RateLimit.Enabled {
		t.Error("RateLimit.Enabled should be false")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("invalid port should fall back to default, got %d", cfg.Server.Port)
	}
}

func TestLLMConfig_APIKey(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"unset", "", ""},
		{"placeholder", "your_api_key_here", ""},
		{"placeholder case", "CHANGEME", ""},
		{"whitespace", "   ", ""},
		{"real key", " gsk_live_123 ", "gsk_live_123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CROAUDIT_TEST_KEY", tt.value)
			c := LLMConfig{APIKeyEnv: "CROAUDIT_TEST_KEY"}
			if got := c.APIKey(); got != tt.want {
				t.Errorf("APIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
