package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-vision-assistant/internal/analysis"
)

func TestNewCatalog_CoversEveryMode(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, mode := range analysis.Modes() {
		p := c.PromptFor(mode)
		assert.NotEmpty(t, p, "mode %s", mode)
		assert.False(t, seen[p], "prompts must differ per mode")
		seen[p] = true
	}
}

func TestNewCatalog_PromptContent(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	shelf := c.PromptFor(analysis.ModeShelf)
	assert.Contains(t, shelf, "market rafı")
	for _, section := range []string{"1. ÜRÜNLER", "2. FİYATLAR", "3. İÇERİK BİLGİSİ", "4. KONUM", "5. ÖZEL NOTLAR"} {
		assert.Contains(t, shelf, section)
	}

	nav := c.PromptFor(analysis.ModeNavigation)
	for _, section := range []string{"1. GENEL DÜZEN", "2. YÖNLER", "3. REYON BİLGİSİ", "4. ENGELLERİ FARK ET", "5. HEDEF KONUMA ULAŞIM"} {
		assert.Contains(t, nav, section)
	}
	assert.Contains(t, nav, "5 adım ilerle")

	assert.Contains(t, c.PromptFor(analysis.ModeOCR), "tüm metinleri oku")
}

func TestPromptFor_Deterministic(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	for _, mode := range analysis.Modes() {
		assert.Equal(t, c.PromptFor(mode), c.PromptFor(mode))
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "shelf: [unterminated"},
		{"missing ocr", "shelf: a\nnavigation: b\n"},
		{"blank prompt", "shelf: a\nnavigation: b\nocr: '  '\n"},
		{"unknown mode", "shelf: a\nnavigation: b\nocr: c\nbarcode: d\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestPromptFor_UnknownModePanics(t *testing.T) {
	c, err := Parse([]byte("shelf: a\nnavigation: b\nocr: c\n"))
	require.NoError(t, err)

	assert.Equal(t, "a", c.PromptFor(analysis.ModeShelf))
	assert.Panics(t, func() { c.PromptFor(analysis.Mode(99)) })
}
