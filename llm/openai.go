package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/use-agent/croaudit/config"
	"github.com/use-agent/croaudit/models"
	"github.com/use-agent/croaudit/prompt"
)

// ModelClient sends analysis prompts to a generative model.
type ModelClient interface {
	// Configured reports whether a usable credential is present. Callers
	// check it before doing any other network work.
	Configured() bool

	// Complete returns the full model output for p.
	Complete(ctx context.Context, p prompt.Prompt) (string, error)

	// Stream returns the model output for p as incremental chunks.
	Stream(ctx context.Context, p prompt.Prompt) (*Stream, error)
}

// Client is a ModelClient for any OpenAI-compatible chat completion API
// (Groq by default).
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	apiKey     func() string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for model requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKeyFunc overrides how the credential is looked up.
func WithAPIKeyFunc(fn func() string) ClientOption {
	return func(c *Client) { c.apiKey = fn }
}

// NewClient creates a Client. The credential is looked up on every call,
// never cached.
func NewClient(cfg config.LLMConfig, opts ...ClientOption) *Client {
	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.apiKey == nil {
		c.apiKey = cfg.APIKey
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) Configured() bool {
	return !config.IsPlaceholderKey(c.apiKey())
}

// Complete sends p with a JSON-object response format and returns the
// first choice's content.
func (c *Client) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	api, err := c.api()
	if err != nil {
		return "", err
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := api.CreateChatCompletion(ctx, c.request(p, false))
	if err != nil {
		return "", c.classify(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", models.NewError(models.KindModelUnavailable, "model returned no choices", nil)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", models.NewError(models.KindModelUnavailable, "model returned an empty response", nil)
	}

	slog.Debug("model completion",
		"model", c.cfg.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return content, nil
}

// Stream opens a streaming completion. The returned Stream owns the
// connection and must be closed.
func (c *Client) Stream(ctx context.Context, p prompt.Prompt) (*Stream, error) {
	api, err := c.api()
	if err != nil {
		return nil, err
	}

	cancel := context.CancelFunc(func() {})
	if c.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
	}

	s, err := api.CreateChatCompletionStream(ctx, c.request(p, true))
	if err != nil {
		classified := c.classify(ctx, err)
		cancel()
		return nil, classified
	}

	recv := func() (string, error) {
		for {
			chunk, err := s.Recv()
			if err != nil {
				return "", err
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				return delta, nil
			}
		}
	}
	return newStream(ctx, recv, func() {
		s.Close()
		cancel()
	}, c.classify), nil
}

// api builds an SDK client bound to the current credential.
func (c *Client) api() (*openai.Client, error) {
	key := c.apiKey()
	if config.IsPlaceholderKey(key) {
		return nil, models.NewError(models.KindConfigurationMissing,
			"Model API key is not configured.", nil,
		).WithDetails(fmt.Sprintf("set %s in the server environment", c.cfg.APIKeyEnv))
	}

	oc := openai.DefaultConfig(key)
	if c.cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(c.cfg.BaseURL, "/")
	}
	oc.HTTPClient = c.httpClient
	return openai.NewClientWithConfig(oc), nil
}

func (c *Client) request(p prompt.Prompt, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: c.cfg.Temperature,
		Stream:      stream,
	}
	if !stream {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

// classify maps SDK and transport errors onto the error taxonomy.
func (c *Client) classify(ctx context.Context, err error) error {
	var ae *models.AnalysisError
	if errors.As(err, &ae) {
		return ae
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return models.NewError(models.KindModelUnavailable, "model request timed out", err).
			WithDetails(fmt.Sprintf("no response within %s", c.cfg.Timeout))
	case errors.Is(err, context.Canceled):
		return models.NewError(models.KindInternal, "request cancelled", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message, c.cfg.APIKeyEnv, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return classifyStatus(reqErr.HTTPStatusCode, msg, c.cfg.APIKeyEnv, err)
	}

	return models.NewError(models.KindModelUnavailable, "model request failed", err)
}

// classifyStatus maps an upstream HTTP status to an error kind.
func classifyStatus(status int, msg, keyEnv string, err error) *models.AnalysisError {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewError(models.KindModelAuthFailure,
			"The model API rejected the configured credential.", err,
		).WithDetails(fmt.Sprintf("check that %s holds a valid, active API key", keyEnv))
	case http.StatusTooManyRequests:
		return models.NewError(models.KindModelRateLimited,
			"The model API rate limit was reached. Please try again shortly.", err,
		).WithDetails(msg)
	default:
		return models.NewError(models.KindModelUnavailable,
			fmt.Sprintf("model API returned %d: %s", status, msg), err)
	}
}
