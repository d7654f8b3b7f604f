package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/use-agent/croaudit/models"
)

// DefaultMaxTextLength is the rune cap applied to page text before it is
// embedded in the user prompt.
const DefaultMaxTextLength = 6000

const notSpecified = "Not specified"

// Prompt is the system/user message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// Builder assembles analysis prompts. The zero value uses
// DefaultMaxTextLength.
type Builder struct {
	MaxTextLength int
}

// NewBuilder returns a Builder that truncates text to maxTextLength runes.
func NewBuilder(maxTextLength int) *Builder {
	return &Builder{MaxTextLength: maxTextLength}
}

// Build renders the prompt pair for text and mission. It has no side effects.
func (b *Builder) Build(text string, mission models.MissionContext) Prompt {
	limit := b.MaxTextLength
	if limit <= 0 {
		limit = DefaultMaxTextLength
	}

	var u strings.Builder
	u.WriteString("Mission context:\n")
	fmt.Fprintf(&u, "Target audience: %s\n", orNotSpecified(mission.TargetAudience))
	fmt.Fprintf(&u, "Product type: %s\n", orNotSpecified(mission.ProductType))
	if !mission.IsZero() {
		u.WriteString("Hyper-personalize every critique, headline and CTA for this audience and product. " +
			"Generic advice that would fit any page is a failure.\n")
	}
	u.WriteString("\nAnalyze this text:\n\n")
	u.WriteString(Truncate(text, limit))

	return Prompt{System: systemPrompt, User: u.String()}
}

// Truncate returns the first max runes of text. Text at or below the cap is
// returned unchanged.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	i, n := 0, 0
	for i = range text {
		if n == max {
			break
		}
		n++
	}
	return text[:i]
}

// EstimateTokens gives a rough token count for logging: rune count / 3,
// never less than one for non-empty input.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	if est := n / 3; est > 0 {
		return est
	}
	return 1
}

// EstimateTokens reports the estimated size of both messages.
func (p Prompt) EstimateTokens() int {
	return EstimateTokens(p.System) + EstimateTokens(p.User)
}

func orNotSpecified(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return notSpecified
	}
	return s
}

const systemPrompt = `You are a senior Conversion Rate Optimization (CRO) expert auditing landing page copy.

The text was scraped automatically and may still contain noise. Ignore it entirely:
- navigation labels and menu items
- cookie banners and consent notices
- legal, copyright and footer text
- leftover script, style or markup fragments
- advertisements and unrelated promotions

Evaluate only the marketing message: headline, value proposition, proof, offer and calls to action.

Every critique item must quote the offending phrase from the page verbatim in double quotes and then give a concrete rewrite. Do not write generic advice.

Respond with a single valid JSON object that strictly follows this schema:
{
  "score": number (1-10),
  "breakdown": {
    "clarity": number (1-10),
    "differentiation": number (1-10),
    "friction": number (1-10),
    "cta_strength": number (1-10),
    "value_proof": number (1-10),
    "offer_architecture": number (1-10)
  },
  "critique": ["critique 1", "critique 2", "critique 3"],
  "headline_alternatives": ["alt 1", "alt 2"],
  "cta_variants": ["cta 1", "cta 2"],
  "ab_test_ideas": ["idea 1", "idea 2"],
  "summary": "short summary string"
}

Do not use markdown formatting or code fences. Return only the raw JSON object.`
