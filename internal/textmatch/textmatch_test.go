package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		got      string
		wer      float64
		cer      float64
	}{
		{"identical", "Süt 2L 35 TL", "Süt 2L 35 TL", 0, 0},
		{"case and spacing ignored", "SÜT  2L\n35 TL", "süt 2l 35 tl", 0, 0},
		{"turkish dotted capital", "İNDİRİM", "indirim", 0, 0},
		{"one word wrong", "ekmek peynir zeytin domates", "ekmek peynir zeytin patates", 0.25, 3.0 / 27.0},
		{"both empty", "", "", 0, 0},
		{"nothing expected", "", "metin", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compare(tt.expected, tt.got)
			assert.InDelta(t, tt.wer, m.WordErrorRate, 1e-9)
			assert.InDelta(t, tt.cer, m.CharacterErrorRate, 1e-9)
		})
	}
}

func TestCompare_CharacterErrorRate(t *testing.T) {
	m := Compare("çay", "cay")
	assert.InDelta(t, 1.0/3.0, m.CharacterErrorRate, 1e-9)
}

func TestCompare_NothingExtracted(t *testing.T) {
	m := Compare("fiyat etiketi", "")
	assert.InDelta(t, 1.0, m.WordErrorRate, 1e-9)
	assert.InDelta(t, 1.0, m.CharacterErrorRate, 1e-9)
}
