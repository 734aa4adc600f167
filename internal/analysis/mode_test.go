package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode_Labels(t *testing.T) {
	tests := []struct {
		mode  Mode
		name  string
		label string
	}{
		{ModeShelf, "shelf", "analysis"},
		{ModeNavigation, "navigation", "analysis"},
		{ModeOCR, "ocr", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.mode.Valid())
			assert.Equal(t, tt.name, tt.mode.String())
			assert.Equal(t, tt.label, tt.mode.ResultLabel())

			parsed, err := ParseMode(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, parsed)
		})
	}
}

func TestMode_Unknown(t *testing.T) {
	unknown := Mode(42)
	assert.False(t, unknown.Valid())
	assert.Equal(t, "mode(42)", unknown.String())

	_, err := ParseMode("barcode")
	assert.Error(t, err)
}

func TestModes_ClosedSet(t *testing.T) {
	assert.Equal(t, []Mode{ModeShelf, ModeNavigation, ModeOCR}, Modes())
}
