package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/croaudit/config"
	"github.com/use-agent/croaudit/models"
	"github.com/use-agent/croaudit/prompt"
)

var testPrompt = prompt.Prompt{System: "system", User: "user"}

func testConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		BaseURL:     baseURL,
		Model:       "llama-3.1-8b-instant",
		Temperature: 0.5,
		Timeout:     5 * time.Second,
		APIKeyEnv:   "GROQ_API_KEY",
	}
}

func newTestClient(srv *httptest.Server, key string) *Client {
	return NewClient(testConfig(srv.URL),
		WithHTTPClient(srv.Client()),
		WithAPIKeyFunc(func() string { return key }),
	)
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"id":"c1","object":"chat.completion","model":"llama-3.1-8b-instant",`+
		`"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],`+
		`"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, content)
}

func writeSSE(w http.ResponseWriter, chunks ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, c := range chunks {
		fmt.Fprintf(w, "data: {\"id\":\"s1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", c)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
	io.WriteString(w, "data: [DONE]\n\n")
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"invalid_request_error","code":"x"}}`, msg)
}

func TestComplete_SendsJSONObjectRequest(t *testing.T) {
	var got struct {
		Model          string  `json:"model"`
		Temperature    float64 `json:"temperature"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(w, `{"score":7}`)
	}))
	defer srv.Close()

	out, err := newTestClient(srv, "gsk_test").Complete(context.Background(), testPrompt)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != `{"score":7}` {
		t.Errorf("output = %q", out)
	}
	if auth != "Bearer gsk_test" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != "llama-3.1-8b-instant" || got.Temperature != 0.5 || got.ResponseFormat.Type != "json_object" {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestComplete_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   models.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, models.KindModelAuthFailure},
		{"forbidden", http.StatusForbidden, models.KindModelAuthFailure},
		{"rate limited", http.StatusTooManyRequests, models.KindModelRateLimited},
		{"server error", http.StatusInternalServerError, models.KindModelUnavailable},
		{"bad gateway", http.StatusBadGateway, models.KindModelUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeAPIError(w, tt.status, "upstream says no")
			}))
			defer srv.Close()

			_, err := newTestClient(srv, "gsk_test").Complete(context.Background(), testPrompt)
			if !models.IsKind(err, tt.want) {
				t.Fatalf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestComplete_AuthFailureCarriesRemediation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "Invalid API Key")
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "gsk_bad").Complete(context.Background(), testPrompt)
	ae := models.AsAnalysisError(err)
	if !strings.Contains(ae.Details, "GROQ_API_KEY") {
		t.Errorf("Details = %q, want remediation naming the key variable", ae.Details)
	}
}

func TestComplete_UnavailableCarriesStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusServiceUnavailable, "model overloaded")
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "gsk_test").Complete(context.Background(), testPrompt)
	ae := models.AsAnalysisError(err)
	if !strings.Contains(ae.Message, "503") || !strings.Contains(ae.Message, "model overloaded") {
		t.Errorf("Message = %q", ae.Message)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","choices":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "gsk_test").Complete(context.Background(), testPrompt)
	if !models.IsKind(err, models.KindModelUnavailable) {
		t.Fatalf("error = %v, want MODEL_UNAVAILABLE", err)
	}
}

func TestMissingCredentialMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeCompletion(w, "{}")
	}))
	defer srv.Close()

	for _, key := range []string{"", "your_api_key_here", "changeme"} {
		c := newTestClient(srv, key)
		if c.Configured() {
			t.Errorf("Configured() = true for key %q", key)
		}
		if _, err := c.Complete(context.Background(), testPrompt); !models.IsKind(err, models.KindConfigurationMissing) {
			t.Errorf("Complete() error = %v, want CONFIGURATION_MISSING", err)
		}
		if _, err := c.Stream(context.Background(), testPrompt); !models.IsKind(err, models.KindConfigurationMissing) {
			t.Errorf("Stream() error = %v, want CONFIGURATION_MISSING", err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("upstream called %d times", calls.Load())
	}
}

func TestCredentialReadPerCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "{}")
	}))
	defer srv.Close()

	t.Setenv("CROAUDIT_TEST_KEY", "")
	cfg := testConfig(srv.URL)
	cfg.APIKeyEnv = "CROAUDIT_TEST_KEY"
	c := NewClient(cfg, WithHTTPClient(srv.Client()))

	if c.Configured() {
		t.Fatal("expected unconfigured client")
	}
	t.Setenv("CROAUDIT_TEST_KEY", "gsk_live")
	if !c.Configured() {
		t.Fatal("credential set after construction must be picked up")
	}
	if _, err := c.Complete(context.Background(), testPrompt); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestStream_YieldsChunksInOrder(t *testing.T) {
	var streamed atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream bool `json:"stream"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		streamed.Store(req.Stream)
		writeSSE(w, `{"score":`, ` 8, `, `"critique": []}`)
	}))
	defer srv.Close()

	s, err := newTestClient(srv, "gsk_test").Stream(context.Background(), testPrompt)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var chunks []string
	out, err := Collect(context.Background(), s, func(c string) { chunks = append(chunks, c) })
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if out != `{"score": 8, "critique": []}` {
		t.Errorf("output = %q", out)
	}
	if len(chunks) != 3 {
		t.Errorf("chunks = %q", chunks)
	}
	if !streamed.Load() {
		t.Error("request did not ask for a stream")
	}

	// Exhausted streams stay exhausted.
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after end = %v, want io.EOF", err)
	}
}

func TestStream_RateLimitedBeforeFirstChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusTooManyRequests, "slow down")
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "gsk_test").Stream(context.Background(), testPrompt)
	if !models.IsKind(err, models.KindModelRateLimited) {
		t.Fatalf("error = %v, want MODEL_RATE_LIMITED", err)
	}
}

func TestStream_CloseIsIdempotent(t *testing.T) {
	var closes atomic.Int32
	s := NewStream(func() (string, error) { return "x", nil }, func() { closes.Add(1) })
	s.Close()
	s.Close()
	if closes.Load() != 1 {
		t.Errorf("close called %d times, want 1", closes.Load())
	}
}

func TestStream_ErrorEndsStream(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	s := NewStream(func() (string, error) {
		calls++
		if calls == 1 {
			return "partial", nil
		}
		return "", boom
	}, nil)

	out, err := Collect(context.Background(), s, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Collect() error = %v, want %v", err, boom)
	}
	if out != "partial" {
		t.Errorf("partial output = %q", out)
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after error = %v, want io.EOF", err)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   models.ErrorKind
	}{
		{401, models.KindModelAuthFailure},
		{403, models.KindModelAuthFailure},
		{429, models.KindModelRateLimited},
		{400, models.KindModelUnavailable},
		{500, models.KindModelUnavailable},
		{0, models.KindModelUnavailable},
	}
	for _, tt := range tests {
		if got := classifyStatus(tt.status, "msg", "GROQ_API_KEY", nil); got.Kind != tt.want {
			t.Errorf("classifyStatus(%d) = %s, want %s", tt.status, got.Kind, tt.want)
		}
	}
}
