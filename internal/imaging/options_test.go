package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 1600, opts.MaxWidth)
	assert.Equal(t, 2300, opts.MaxHeight)
	assert.Equal(t, FormatPNG, opts.Format)
	assert.Equal(t, draw.CatmullRom, opts.Interpolator)
	assert.Equal(t, int64(50_000_000), opts.MaxSourcePixels)
	assert.NoError(t, opts.Validate())
}

func TestOptions_Builders(t *testing.T) {
	opts := DefaultOptions().WithBounds(800, 600).WithFormat(FormatJPEG).WithFastScaling().WithMaxSourcePixels(1000)

	assert.Equal(t, 800, opts.MaxWidth)
	assert.Equal(t, 600, opts.MaxHeight)
	assert.Equal(t, FormatJPEG, opts.Format)
	assert.Equal(t, draw.ApproxBiLinear, opts.Interpolator)
	assert.Equal(t, int64(1000), opts.MaxSourcePixels)

	// builders work on copies
	assert.Equal(t, 1600, DefaultOptions().MaxWidth)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero width", DefaultOptions().WithBounds(0, 100)},
		{"negative height", DefaultOptions().WithBounds(100, -1)},
		{"unknown format", DefaultOptions().WithFormat("gif")},
		{"zero source pixels", DefaultOptions().WithMaxSourcePixels(0)},
		{"bad jpeg quality", func() Options {
			o := DefaultOptions().WithFormat(FormatJPEG)
			o.JPEGQuality = 0
			return o
		}()},
		{"missing interpolator", func() Options {
			o := DefaultOptions()
			o.Interpolator = nil
			return o
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.opts.Validate())
			_, err := NewNormalizer(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": FormatPNG, "jpeg": FormatJPEG, "jpg": FormatJPEG} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("webp")
	assert.Error(t, err)

	assert.Equal(t, ".jpg", FormatJPEG.Extension())
	assert.Equal(t, "image/png", FormatPNG.MIMEType())
}
