package analysis

import (
	"encoding/json"
	"strings"

	"github.com/use-agent/croaudit/models"
	"github.com/use-agent/croaudit/prompt"
)

// rawPreviewRunes bounds the malformed output echoed back to clients.
const rawPreviewRunes = 500

// Validate parses raw model output into an AnalysisResult.
//
// A surrounding markdown code fence (with or without a language tag) is
// tolerated. Unparseable output is INVALID_JSON. Parsed output whose score is
// not a number, whose breakdown is not an object, or whose critique is not an
// array is SCHEMA_MISMATCH. All other fields are taken as given.
func Validate(raw string) (*models.AnalysisResult, error) {
	body := stripFence(raw)

	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, models.NewError(models.KindInvalidJSON,
			"The model returned a response that is not valid JSON.", err,
		).WithRawResponse(prompt.Truncate(raw, rawPreviewRunes))
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, schemaMismatch("top-level value is not an object", body)
	}
	if _, ok := obj["score"].(float64); !ok {
		return nil, schemaMismatch("score must be a number", body)
	}
	if bd, ok := obj["breakdown"].(map[string]any); !ok || bd == nil {
		return nil, schemaMismatch("breakdown must be an object", body)
	}
	if _, ok := obj["critique"].([]any); !ok {
		return nil, schemaMismatch("critique must be an array", body)
	}

	return decodeResult(obj), nil
}

func schemaMismatch(details, body string) *models.AnalysisError {
	return models.NewError(models.KindSchemaMismatch,
		"The model response does not match the expected analysis format.", nil,
	).WithDetails(details).WithRawResponse(prompt.Truncate(body, rawPreviewRunes))
}

// stripFence removes a leading ``` (optionally followed by a language tag)
// and a trailing ```. The payload may start on the tag line.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimLeftFunc(s, isFenceTagRune)
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '_' || r == '+' || r == '-'
}

// decodeResult reads the shape-checked object leniently: wrong-typed optional
// fields become zero values and non-string list items are skipped.
func decodeResult(obj map[string]any) *models.AnalysisResult {
	bd, _ := obj["breakdown"].(map[string]any)
	return &models.AnalysisResult{
		Score: number(obj["score"]),
		Breakdown: models.Breakdown{
			Clarity:           number(bd["clarity"]),
			Differentiation:   number(bd["differentiation"]),
			Friction:          number(bd["friction"]),
			CTAStrength:       number(bd["cta_strength"]),
			ValueProof:        number(bd["value_proof"]),
			OfferArchitecture: number(bd["offer_architecture"]),
		},
		Critique:             stringList(obj["critique"]),
		HeadlineAlternatives: stringList(obj["headline_alternatives"]),
		CTAVariants:          stringList(obj["cta_variants"]),
		ABTestIdeas:          stringList(obj["ab_test_ideas"]),
		Summary:              str(obj["summary"]),
	}
}

func number(v any) float64 {
	f, _ := v.(float64)
	return f
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
