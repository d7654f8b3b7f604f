package models

import "strings"

// FetchContentRequest is the payload for POST /fetch-content.
type FetchContentRequest struct {
	// URL is the landing page to fetch. Required; http or https only.
	URL string `json:"url"`
}

// AnalyzeRequest is the payload for POST /analyze.
//
// Text wins over URL. When Text is empty and URL is set, the server runs the
// fetch + extract pipeline before analysis.
type AnalyzeRequest struct {
	Text string `json:"text,omitempty"`

	// Completion is accepted as an alias of Text by streaming clients.
	Completion string `json:"completion,omitempty"`

	URL string `json:"url,omitempty"`

	TargetAudience string `json:"targetAudience,omitempty"`
	ProductType    string `json:"productType,omitempty"`

	// Stream selects the chunked text response. The "stream" query
	// parameter has the same effect.
	Stream bool `json:"stream,omitempty"`
}

// EffectiveText returns Text, falling back to the Completion alias.
func (r *AnalyzeRequest) EffectiveText() string {
	if t := strings.TrimSpace(r.Text); t != "" {
		return r.Text
	}
	return r.Completion
}

// Mission returns the request's mission context with whitespace trimmed.
func (r *AnalyzeRequest) Mission() MissionContext {
	return MissionContext{
		TargetAudience: strings.TrimSpace(r.TargetAudience),
		ProductType:    strings.TrimSpace(r.ProductType),
	}
}
