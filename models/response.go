package models

// FetchContentResponse is the success body for POST /fetch-content.
type FetchContentResponse struct {
	Text string `json:"text"`

	// Warning is set when the body yielded nothing and the title/meta
	// description fallback was used instead.
	Warning string `json:"warning,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status          string `json:"status"` // "healthy" or "degraded"
	Uptime          string `json:"uptime"`
	Version         string `json:"version"`
	Model           string `json:"model"`
	ModelConfigured bool   `json:"model_configured"`
}
