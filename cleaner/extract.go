package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/croaudit/models"
)

// fallbackWarning accompanies text recovered from <title>/<meta description>.
const fallbackWarning = "Body content was empty after cleaning; using title/meta description as fallback."

// Extractor turns noisy landing-page HTML into the marketing copy worth
// analyzing. It holds only compiled, read-only rules and is safe for
// concurrent use.
type Extractor struct {
	rules *compiledRules
}

// NewExtractor compiles rules into an Extractor.
func NewExtractor(rules Rules) (*Extractor, error) {
	c, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Extractor{rules: c}, nil
}

// MustNewExtractor is like NewExtractor but panics on invalid rules.
func MustNewExtractor(rules Rules) *Extractor {
	e, err := NewExtractor(rules)
	if err != nil {
		panic(err)
	}
	return e
}

// Extraction is the outcome of ExtractPage.
type Extraction struct {
	Text string

	// UsedFallback is true when Text came from the title/meta description.
	UsedFallback bool
	Warning      string
}

// Extract returns the deduplicated visible marketing text of rawHTML joined
// by single spaces, or "" when nothing survives filtering. It never fails.
func (e *Extractor) Extract(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return e.extractFrom(doc)
}

// Fallback returns the page title and meta description joined by a space.
func (e *Extractor) Fallback(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return fallbackFrom(doc)
}

// ExtractPage runs Extract and, when it yields nothing, falls back to the
// title/meta description of the same document. If both are empty it
// reports NO_CONTENT_FOUND.
func (e *Extractor) ExtractPage(rawHTML string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err == nil {
		if text := e.extractFrom(doc); text != "" {
			return Extraction{Text: text}, nil
		}
		if fb := fallbackFrom(doc); fb != "" {
			return Extraction{Text: fb, UsedFallback: true, Warning: fallbackWarning}, nil
		}
	}
	return Extraction{}, models.NewError(models.KindNoContentFound,
		"The page was fetched but no meaningful text was found to analyze.", err)
}

// extractFrom prunes doc in place and collects surviving fragments.
func (e *Extractor) extractFrom(doc *goquery.Document) string {
	e.prune(doc)

	seen := make(map[string]struct{})
	var fragments []string

	for _, sel := range e.rules.include {
		doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
			if !e.isCandidate(s) {
				return
			}
			text := normalizeSpace(s.Text())
			if !e.rules.keep(text) {
				return
			}
			if _, dup := seen[text]; dup {
				return
			}
			seen[text] = struct{}{}
			fragments = append(fragments, text)
		})
	}

	return strings.TrimSpace(strings.Join(fragments, " "))
}

// prune removes excluded and inline-hidden elements. Removal happens before
// traversal so descendants of removed nodes are never visited.
func (e *Extractor) prune(doc *goquery.Document) {
	if e.rules.exclude != nil {
		doc.FindMatcher(e.rules.exclude).Remove()
	}
	doc.Find("[style]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return len(s.Nodes) > 0 && hiddenByStyle(styleAttr(s.Nodes[0]))
	}).Remove()
}

func styleAttr(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, "style") {
			return a.Val
		}
	}
	return ""
}

// isCandidate gates generic container tags on their class hints.
func (e *Extractor) isCandidate(s *goquery.Selection) bool {
	if _, gated := e.rules.containerTags[goquery.NodeName(s)]; !gated {
		return true
	}
	class := strings.ToLower(s.AttrOr("class", ""))
	for _, hint := range e.rules.containerHints {
		if strings.Contains(class, hint) {
			return true
		}
	}
	return false
}

func fallbackFrom(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	desc := strings.TrimSpace(doc.Find(`meta[name="description"]`).First().AttrOr("content", ""))

	parts := make([]string, 0, 2)
	for _, p := range []string{title, desc} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// hiddenByStyle reports inline display:none or visibility:hidden.
func hiddenByStyle(style string) bool {
	compact := strings.ToLower(strings.Join(strings.Fields(style), ""))
	return strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden")
}

// normalizeSpace collapses whitespace runs to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
