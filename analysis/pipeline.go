package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/use-agent/croaudit/cleaner"
	"github.com/use-agent/croaudit/llm"
	"github.com/use-agent/croaudit/models"
	"github.com/use-agent/croaudit/prompt"
	"github.com/use-agent/croaudit/scraper"
)

// DefaultMinTextLength is the minimum rune count of text worth analyzing.
const DefaultMinTextLength = 20

// PageFetcher retrieves raw page HTML.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*scraper.PageContent, error)
}

// TextExtractor turns page HTML into analyzable text.
type TextExtractor interface {
	ExtractPage(rawHTML string) (cleaner.Extraction, error)
}

// Pipeline wires fetching, extraction, prompting, the model and validation
// into the two request flows. It holds no per-request state.
type Pipeline struct {
	Fetcher       PageFetcher
	Extractor     TextExtractor
	Builder       *prompt.Builder
	Model         llm.ModelClient
	MinTextLength int
}

// AnalyzeInput is a single analysis request. Text wins over URL.
type AnalyzeInput struct {
	Text    string
	URL     string
	Mission models.MissionContext
}

// FetchText fetches rawURL and extracts its marketing text.
func (p *Pipeline) FetchText(ctx context.Context, rawURL string) (cleaner.Extraction, error) {
	start := time.Now()

	page, err := p.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return cleaner.Extraction{}, err
	}

	ext, err := p.Extractor.ExtractPage(page.HTML)
	if err != nil {
		slog.Info("no content extracted", "url", rawURL, "profile", page.Profile)
		return cleaner.Extraction{}, err
	}

	slog.Info("page text extracted",
		"url", rawURL,
		"profile", page.Profile,
		"chars", utf8.RuneCountInString(ext.Text),
		"fallback", ext.UsedFallback,
		"ms", time.Since(start).Milliseconds(),
	)
	return ext, nil
}

// Analyze runs the full non-streaming flow and returns a validated result.
func (p *Pipeline) Analyze(ctx context.Context, in AnalyzeInput) (*models.AnalysisResult, error) {
	pr, err := p.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := p.Model.Complete(ctx, pr)
	if err != nil {
		return nil, err
	}

	result, err := Validate(raw)
	if err != nil {
		slog.Warn("model output rejected", "error", err)
		return nil, err
	}

	slog.Info("analysis complete",
		"score", result.Score,
		"critiques", len(result.Critique),
		"ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// AnalyzeStream runs the same preconditions as Analyze and then opens a
// model stream. The caller must close the returned Stream.
func (p *Pipeline) AnalyzeStream(ctx context.Context, in AnalyzeInput) (*llm.Stream, error) {
	pr, err := p.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	return p.Model.Stream(ctx, pr)
}

// prepare validates input, checks the model credential before any network
// call, resolves the text and builds the prompt.
func (p *Pipeline) prepare(ctx context.Context, in AnalyzeInput) (prompt.Prompt, error) {
	text := strings.TrimSpace(in.Text)
	url := strings.TrimSpace(in.URL)

	if text == "" && url == "" {
		return prompt.Prompt{}, p.tooShort()
	}
	if text != "" && !p.longEnough(text) {
		return prompt.Prompt{}, p.tooShort()
	}

	if !p.Model.Configured() {
		return prompt.Prompt{}, models.NewError(models.KindConfigurationMissing,
			"Model API key is not configured.", nil)
	}

	if text == "" {
		ext, err := p.FetchText(ctx, url)
		if err != nil {
			return prompt.Prompt{}, err
		}
		text = ext.Text
		if !p.longEnough(text) {
			return prompt.Prompt{}, p.tooShort()
		}
	}

	pr := p.builder().Build(text, in.Mission)
	slog.Debug("prompt built",
		"est_tokens", pr.EstimateTokens(),
		"audience", in.Mission.TargetAudience,
		"product", in.Mission.ProductType,
	)
	return pr, nil
}

func (p *Pipeline) builder() *prompt.Builder {
	if p.Builder == nil {
		return &prompt.Builder{}
	}
	return p.Builder
}

func (p *Pipeline) minLength() int {
	if p.MinTextLength <= 0 {
		return DefaultMinTextLength
	}
	return p.MinTextLength
}

func (p *Pipeline) longEnough(text string) bool {
	return utf8.RuneCountInString(text) >= p.minLength()
}

func (p *Pipeline) tooShort() error {
	return models.NewError(models.KindInvalidInput,
		"The text to analyze is missing or too short.", nil,
	).WithDetails(fmt.Sprintf("at least %d characters are required", p.minLength()))
}
