package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/use-agent/croaudit/models"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"below cap", "hello", 10, "hello"},
		{"exactly at cap", "hello", 5, "hello"},
		{"one over cap", "hello!", 5, "hello"},
		{"multibyte runes", "héllo wörld", 4, "héll"},
		{"non-positive cap disables", "hello", 0, "hello"},
		{"empty", "", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestBuild_TruncatesExactlyAtCap(t *testing.T) {
	b := NewBuilder(6000)
	text := strings.Repeat("a", 6000) + strings.Repeat("b", 500)

	p := b.Build(text, models.MissionContext{})
	if strings.Contains(p.User, "b") {
		t.Error("text beyond the cap leaked into the prompt")
	}
	if !strings.HasSuffix(p.User, strings.Repeat("a", 6000)) {
		t.Error("prompt should end with exactly the first 6000 runes")
	}
}

func TestBuild_ShortTextUnchanged(t *testing.T) {
	text := "Ship invoices in one click. Start free today."
	p := NewBuilder(6000).Build(text, models.MissionContext{})
	if !strings.HasSuffix(p.User, "Analyze this text:\n\n"+text) {
		t.Errorf("User = %q", p.User)
	}
}

func TestBuild_ZeroValueUsesDefaultCap(t *testing.T) {
	var b Builder
	p := b.Build(strings.Repeat("é", DefaultMaxTextLength+10), models.MissionContext{})
	body := p.User[strings.Index(p.User, "Analyze this text:\n\n")+len("Analyze this text:\n\n"):]
	if n := utf8.RuneCountInString(body); n != DefaultMaxTextLength {
		t.Errorf("embedded text = %d runes, want %d", n, DefaultMaxTextLength)
	}
}

func TestBuild_MissionBlock(t *testing.T) {
	tests := []struct {
		name        string
		mission     models.MissionContext
		wantLines   []string
		personalize bool
	}{
		{
			name:      "empty mission",
			mission:   models.MissionContext{},
			wantLines: []string{"Target audience: Not specified", "Product type: Not specified"},
		},
		{
			name:        "audience only",
			mission:     models.MissionContext{TargetAudience: "indie hackers"},
			wantLines:   []string{"Target audience: indie hackers", "Product type: Not specified"},
			personalize: true,
		},
		{
			name:        "both set",
			mission:     models.MissionContext{TargetAudience: "CFOs", ProductType: "B2B SaaS"},
			wantLines:   []string{"Target audience: CFOs", "Product type: B2B SaaS"},
			personalize: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewBuilder(100).Build("Some landing page copy", tt.mission)
			for _, line := range tt.wantLines {
				if !strings.Contains(p.User, line+"\n") {
					t.Errorf("User missing %q:\n%s", line, p.User)
				}
			}
			if got := strings.Contains(p.User, "Hyper-personalize"); got != tt.personalize {
				t.Errorf("personalization instruction present = %v, want %v", got, tt.personalize)
			}
		})
	}
}

func TestBuild_SystemPromptSchema(t *testing.T) {
	p := NewBuilder(0).Build("x", models.MissionContext{})
	for _, key := range []string{
		`"score"`, `"breakdown"`, `"clarity"`, `"differentiation"`, `"friction"`,
		`"cta_strength"`, `"value_proof"`, `"offer_architecture"`, `"critique"`,
		`"headline_alternatives"`, `"cta_variants"`, `"ab_test_ideas"`, `"summary"`,
		"verbatim", "cookie",
	} {
		if !strings.Contains(p.System, key) {
			t.Errorf("system prompt missing %s", key)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"ab", 1},
		{"abcdef", 2},
		{"日本語日本語", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
