package scraper

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/encoding/unicode"

	"github.com/use-agent/croaudit/config"
	"github.com/use-agent/croaudit/models"
)

// Fetcher retrieves landing page HTML, cycling through header profiles
// until one is accepted. It is safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	profiles []HeaderProfileSource
	timeout  time.Duration
	maxBody  int64
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the Chrome-fingerprint client (used by tests).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithProfiles replaces the default header profile set.
func WithProfiles(p ...HeaderProfileSource) Option {
	return func(f *Fetcher) { f.profiles = p }
}

// NewFetcher creates a Fetcher from the fetch configuration.
func NewFetcher(cfg config.FetchConfig, opts ...Option) *Fetcher {
	f := &Fetcher{
		profiles: DefaultProfiles(),
		timeout:  cfg.Timeout,
		maxBody:  cfg.MaxBodyBytes,
	}
	if f.timeout <= 0 {
		f.timeout = 12 * time.Second
	}
	if f.maxBody <= 0 {
		f.maxBody = 10 << 20
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = newChromeClient(cfg.Proxy)
	}
	return f
}

// Timeout returns the deadline applied to a whole attempt sequence.
func (f *Fetcher) Timeout() time.Duration { return f.timeout }

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, models.NewError(models.KindInvalidInput, "URL is required", nil)
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, models.NewError(models.KindInvalidInput,
			"URL is invalid. Please enter a full http(s) URL.", err)
	}
	return u, nil
}

// Fetch retrieves the page at rawURL.
//
// One deadline covers the whole profile sequence. A rejected response or a
// transport failure moves on to the next profile; hitting the deadline
// aborts immediately. Exhausting every profile is reported as BotProtected.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*PageContent, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	for i, src := range f.profiles {
		page, err := f.attempt(ctx, target.String(), src.Headers())
		if err == nil {
			page.Profile = src.Name()
			slog.Debug("page fetched",
				"url", target.String(), "profile", src.Name(), "status", page.StatusCode,
			)
			return page, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				slog.Warn("page fetch timed out",
					"url", target.String(), "profile", src.Name(), "attempt", i+1,
				)
				return nil, models.NewError(models.KindFetchTimeout,
					"Failed to fetch or parse the provided URL. Please try another page.", ctxErr,
				).WithDetails(fmt.Sprintf("Request timed out after %dms", f.timeout.Milliseconds()))
			}
			return nil, models.NewError(models.KindInternal, "request cancelled", ctxErr)
		}

		slog.Debug("fetch attempt rejected",
			"url", target.String(), "profile", src.Name(), "error", err,
		)
	}

	slog.Warn("all header profiles rejected", "url", target.String(), "profiles", len(f.profiles))
	return nil, models.NewError(models.KindBotProtected,
		"The page is bot-protected or blocked. Manual paste required.", nil,
	).WithDetails(fmt.Sprintf("all %d header profiles were rejected", len(f.profiles)))
}

// attempt performs a single GET with the given headers.
func (f *Fetcher) attempt(ctx context.Context, targetURL string, headers HeaderProfile) (*PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Cache-Control") == "" {
		req.Header.Set("Cache-Control", "no-store")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("httpfetch: HTTP %d for %s", resp.StatusCode, targetURL)
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: read body: %w", err)
	}

	return &PageContent{
		URL:        targetURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       body,
	}, nil
}

// readBody decompresses (when the profile negotiated compression itself)
// and decodes the body as UTF-8, replacing invalid byte sequences.
func (f *Fetcher) readBody(resp *http.Response) (string, error) {
	var r io.Reader = resp.Body
	if !resp.Uncompressed {
		switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
		case "gzip", "x-gzip":
			gz, err := gzip.NewReader(resp.Body)
			if err != nil {
				return "", err
			}
			defer gz.Close()
			r = gz
		case "deflate":
			zr, err := zlib.NewReader(resp.Body)
			if err != nil {
				return "", err
			}
			defer zr.Close()
			r = zr
		case "br":
			r = brotli.NewReader(resp.Body)
		}
	}

	raw, err := io.ReadAll(io.LimitReader(r, f.maxBody))
	if err != nil {
		return "", err
	}

	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD"), nil
	}
	return string(decoded), nil
}
