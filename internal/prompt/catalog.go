package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"go-vision-assistant/internal/analysis"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Catalog maps each analysis mode to the fixed instruction sent with the image.
// It is built once at startup and only read afterwards.
type Catalog struct {
	prompts map[analysis.Mode]string
}

// NewCatalog parses the embedded prompt set
func NewCatalog() (*Catalog, error) {
	return Parse(defaultPrompts)
}

// Parse builds a catalog from YAML keyed by mode name.
// Every mode must have a non-empty prompt; unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}

	prompts := make(map[analysis.Mode]string, len(raw))
	for name, text := range raw {
		mode, err := analysis.ParseMode(name)
		if err != nil {
			return nil, fmt.Errorf("prompt catalog: %w", err)
		}
		prompts[mode] = strings.TrimSpace(text)
	}

	for _, mode := range analysis.Modes() {
		if prompts[mode] == "" {
			return nil, fmt.Errorf("prompt catalog: missing prompt for mode %q", mode)
		}
	}

	return &Catalog{prompts: prompts}, nil
}

// PromptFor returns the instruction for mode.
// Calling it with a mode outside analysis.Modes() is a programming error.
func (c *Catalog) PromptFor(mode analysis.Mode) string {
	p, ok := c.prompts[mode]
	if !ok {
		panic(fmt.Sprintf("prompt catalog: no prompt for %s", mode))
	}
	return p
}
