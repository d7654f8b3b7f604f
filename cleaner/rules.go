package cleaner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Rules is the declarative extraction configuration. It is plain data so
// callers can derive variants from DefaultRules; NewExtractor compiles it.
type Rules struct {
	// ExcludeSelectors are removed from the document before any traversal,
	// taking their descendants with them.
	ExcludeSelectors []string

	// IncludeSelectors pick candidate elements. Each selector is walked in
	// turn, in document order within a selector.
	IncludeSelectors []string

	// ContainerTags are generic wrappers that only count as candidates when
	// their class attribute contains one of ContainerHints.
	ContainerTags  []string
	ContainerHints []string

	// DisclaimerPattern drops legal boilerplate regardless of length.
	DisclaimerPattern string

	// CTAKeywords exempt short fragments from the MinWords threshold.
	// Matched as case-insensitive substrings.
	CTAKeywords []string

	MinWords int
}

// DefaultRules returns the rule set tuned for marketing landing pages.
func DefaultRules() Rules {
	return Rules{
		ExcludeSelectors: []string{
			"script", "style", "noscript", "svg", "path", "iframe",
			"header", "nav", "footer", "aside", "menu",
			".cookie", ".gdpr", ".consent", ".banner", ".popup", ".modal",
			".advert", ".ad", ".ads", ".newsletter",
			`[aria-hidden="true"]`,
		},
		IncludeSelectors: []string{
			"h1", "h2", "h3", "p", "li", "section", "main", "article", "div", "a",
		},
		ContainerTags:     []string{"div"},
		ContainerHints:    []string{"hero", "content"},
		DisclaimerPattern: `(?i)privacy|cookies?|gdpr|terms|copyright|all rights reserved`,
		CTAKeywords: []string{
			"sign up", "signup", "get started", "start free", "join now",
			"try now", "see pricing", "buy now", "learn more", "start now",
		},
		MinWords: 3,
	}
}

// compiledRules is the immutable, goroutine-safe form of Rules.
type compiledRules struct {
	exclude        cascadia.Selector
	include        []cascadia.Selector
	containerTags  map[string]struct{}
	containerHints []string
	disclaimer     *regexp.Regexp
	ctaKeywords    []string
	minWords       int
}

func compileRules(r Rules) (*compiledRules, error) {
	if len(r.IncludeSelectors) == 0 {
		return nil, fmt.Errorf("cleaner: at least one include selector is required")
	}

	c := &compiledRules{
		containerTags: make(map[string]struct{}, len(r.ContainerTags)),
		minWords:      r.MinWords,
	}

	var err error
	if len(r.ExcludeSelectors) > 0 {
		c.exclude, err = cascadia.Compile(strings.Join(r.ExcludeSelectors, ", "))
		if err != nil {
			return nil, fmt.Errorf("cleaner: exclude selectors: %w", err)
		}
	}
	for _, sel := range r.IncludeSelectors {
		m, err := cascadia.Compile(sel)
		if err != nil {
			return nil, fmt.Errorf("cleaner: include selector %q: %w", sel, err)
		}
		c.include = append(c.include, m)
	}

	if r.DisclaimerPattern != "" {
		c.disclaimer, err = regexp.Compile(r.DisclaimerPattern)
		if err != nil {
			return nil, fmt.Errorf("cleaner: disclaimer pattern: %w", err)
		}
	}

	for _, tag := range r.ContainerTags {
		c.containerTags[strings.ToLower(tag)] = struct{}{}
	}
	for _, h := range r.ContainerHints {
		c.containerHints = append(c.containerHints, strings.ToLower(h))
	}
	for _, kw := range r.CTAKeywords {
		c.ctaKeywords = append(c.ctaKeywords, strings.ToLower(kw))
	}
	return c, nil
}

// keep decides whether a normalized fragment survives filtering.
func (c *compiledRules) keep(text string) bool {
	if text == "" {
		return false
	}
	if c.disclaimer != nil && c.disclaimer.MatchString(text) {
		return false
	}
	if len(strings.Fields(text)) < c.minWords && !c.isCTA(text) {
		return false
	}
	return true
}

func (c *compiledRules) isCTA(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.ctaKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
