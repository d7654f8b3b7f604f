package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// fetchContentResponse mirrors the /fetch-content success body.
type fetchContentResponse struct {
	Text    string `json:"text"`
	Warning string `json:"warning"`
}

// errorResponse mirrors the error body shared by every endpoint.
type errorResponse struct {
	Error       string `json:"error"`
	Code        string `json:"code"`
	Details     string `json:"details"`
	RawResponse string `json:"rawResponse"`
}

func main() {
	apiURL := os.Getenv("CROAUDIT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiURL = strings.TrimRight(apiURL, "/")

	s := server.NewMCPServer(
		"croaudit",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	fetchContentTool := mcp.NewTool("fetch_content",
		mcp.WithDescription("Fetch a landing page and return its extracted marketing copy (headlines, value proposition, CTAs) with navigation, legal text and other noise removed."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute http(s) URL of the landing page"),
		),
	)
	s.AddTool(fetchContentTool, handleFetchContent(apiURL))

	analyzeTool := mcp.NewTool("analyze_landing_page",
		mcp.WithDescription("Run a conversion-rate-optimization audit of a landing page. Returns a 1-10 score, a per-dimension breakdown, quoted critiques with rewrites, headline and CTA alternatives and A/B test ideas. Provide either url or text."),
		mcp.WithString("url",
			mcp.Description("Landing page URL to fetch and analyze"),
		),
		mcp.WithString("text",
			mcp.Description("Landing page copy to analyze directly (takes precedence over url)"),
		),
		mcp.WithString("target_audience",
			mcp.Description("Who the page is for, used to personalize the critique"),
		),
		mcp.WithString("product_type",
			mcp.Description("What is being sold, used to personalize the critique"),
		),
	)
	s.AddTool(analyzeTool, handleAnalyze(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the croaudit API and returns the status
// and response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// toolError turns a non-200 API response into a tool error result.
func toolError(status int, body []byte) *mcp.CallToolResult {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return mcp.NewToolResultError(fmt.Sprintf("API returned %d: %s", status, strings.TrimSpace(string(body))))
	}
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Error)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return mcp.NewToolResultError(msg)
}

func handleFetchContent(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		status, respBody, err := apiPost(ctx, client, apiURL, "/fetch-content", map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return toolError(status, respBody), nil
		}

		var resp fetchContentResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		result := resp.Text
		if resp.Warning != "" {
			result = "Warning: " + resp.Warning + "\n\n" + result
		}
		return mcp.NewToolResultText(result), nil
	}
}

func handleAnalyze(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url := request.GetString("url", "")
		text := request.GetString("text", "")
		if strings.TrimSpace(url) == "" && strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("either url or text is required"), nil
		}

		payload := map[string]string{}
		if text != "" {
			payload["text"] = text
		}
		if url != "" {
			payload["url"] = url
		}
		if v := request.GetString("target_audience", ""); v != "" {
			payload["targetAudience"] = v
		}
		if v := request.GetString("product_type", ""); v != "" {
			payload["productType"] = v
		}

		status, respBody, err := apiPost(ctx, client, apiURL, "/analyze", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return toolError(status, respBody), nil
		}

		// Format the analysis as pretty JSON.
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
			pretty.Write(respBody)
		}
		return mcp.NewToolResultText(pretty.String()), nil
	}
}
