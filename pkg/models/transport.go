package models

// AnalysisResponse is the success envelope of the analysis routes.
// Shelf and navigation results are carried in Analysis, OCR results in Text.
type AnalysisResponse struct {
	Success  bool       `json:"success"`
	Analysis string     `json:"analysis,omitempty"`
	Text     string     `json:"text,omitempty"`
	Type     string     `json:"type"`
	Hints    []string   `json:"hints,omitempty"`
	Match    *TextMatch `json:"match,omitempty"`
}

// TextMatch reports how closely extracted text matches the expected text
type TextMatch struct {
	WordErrorRate      float64 `json:"word_error_rate"`
	CharacterErrorRate float64 `json:"character_error_rate"`
}

// ErrorResponse is the failure envelope; Detail is safe to read aloud
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// StatusResponse is returned by the root route when no frontend is bundled
type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}
