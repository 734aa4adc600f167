package model

import "fmt"

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.0-flash"

// InvocationConfig holds the generation parameters sent with every call.
// It is built once at startup and passed by value.
type InvocationConfig struct {
	Model           string
	MaxOutputTokens int32
	Temperature     float32
	TopP            float32
	TopK            float32
}

// DefaultInvocationConfig returns the fixed parameters used for all analysis modes
func DefaultInvocationConfig(model string) InvocationConfig {
	if model == "" {
		model = DefaultModel
	}
	return InvocationConfig{
		Model:           model,
		MaxOutputTokens: 2048,
		Temperature:     0.1,
		TopP:            0.9,
		TopK:            30,
	}
}

// Validate checks that the parameters are within the ranges the API accepts
func (c InvocationConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model name must be set")
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("max output tokens must be > 0 (got %d)", c.MaxOutputTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within 0..2 (got %g)", c.Temperature)
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be within (0, 1] (got %g)", c.TopP)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be > 0 (got %g)", c.TopK)
	}
	return nil
}
