package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-vision-assistant/internal/errors"
)

// encodePNG encodes img as PNG bytes for use as raw upload data
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// createTestImage creates a uniformly filled RGBA image
func createTestImage(width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}
	return img
}

func newTestNormalizer(t *testing.T, opts Options) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(opts)
	require.NoError(t, err)
	return n
}

func TestNormalize_BoundingInvariant(t *testing.T) {
	n := newTestNormalizer(t, DefaultOptions().WithFastScaling())

	tests := []struct {
		name          string
		width, height int
	}{
		{"small image untouched", 640, 480},
		{"exactly at bounds", 1600, 2300},
		{"too wide", 3200, 1000},
		{"too tall", 1000, 4600},
		{"both too large", 2400, 2400},
		{"extreme panorama", 9000, 50},
		{"one pixel", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := encodePNG(t, createTestImage(tt.width, tt.height, color.RGBA{10, 120, 200, 255}))

			out, err := n.Normalize(raw)
			require.NoError(t, err)

			assert.LessOrEqual(t, out.Width, 1600)
			assert.LessOrEqual(t, out.Height, 2300)
			assert.LessOrEqual(t, out.Width, tt.width, "must never upscale width")
			assert.LessOrEqual(t, out.Height, tt.height, "must never upscale height")
			assert.Equal(t, image.Rect(0, 0, out.Width, out.Height), out.Image.Bounds())
			assert.Equal(t, tt.width, out.SourceWidth)
			assert.Equal(t, tt.height, out.SourceHeight)
		})
	}
}

func TestNormalize_LargeRGBAPhoto(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large image normalization in short mode")
	}
	n := newTestNormalizer(t, DefaultOptions())

	src := image.NewNRGBA(image.Rect(0, 0, 4000, 6000))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 200, 30, 30, 128
	}

	out, err := n.Normalize(encodePNG(t, src))
	require.NoError(t, err)

	assert.Equal(t, 1533, out.Width)
	assert.Equal(t, 2300, out.Height)
	assert.True(t, out.Downscaled())
	assert.True(t, out.Image.Opaque())
	assert.InDelta(t, 4000.0/6000.0, float64(out.Width)/float64(out.Height), 0.001)
}

func TestNormalize_ColorInvariant(t *testing.T) {
	n := newTestNormalizer(t, DefaultOptions())

	paletted := image.NewPaletted(image.Rect(0, 0, 40, 30), palette.Plan9)
	for i := range paletted.Pix {
		paletted.Pix[i] = uint8(i % len(palette.Plan9))
	}

	gray := image.NewGray(image.Rect(0, 0, 40, 30))
	for i := range gray.Pix {
		gray.Pix[i] = 77
	}

	transparent := image.NewNRGBA(image.Rect(0, 0, 40, 30))

	tests := []struct {
		name  string
		src   image.Image
		check func(t *testing.T, out *NormalizedImage)
	}{
		{
			name: "indexed palette",
			src:  paletted,
			check: func(t *testing.T, out *NormalizedImage) {
				want := color.RGBAModel.Convert(paletted.At(5, 0)).(color.RGBA)
				assert.Equal(t, want, out.Image.RGBAAt(5, 0))
			},
		},
		{
			name: "grayscale",
			src:  gray,
			check: func(t *testing.T, out *NormalizedImage) {
				assert.Equal(t, color.RGBA{77, 77, 77, 255}, out.Image.RGBAAt(3, 3))
			},
		},
		{
			name: "fully transparent becomes white",
			src:  transparent,
			check: func(t *testing.T, out *NormalizedImage) {
				assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.Image.RGBAAt(0, 0))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := n.Normalize(encodePNG(t, tt.src))
			require.NoError(t, err)

			assert.True(t, out.Image.Opaque(), "normalized image must carry no alpha")
			tt.check(t, out)

			cfg, err := png.DecodeConfig(bytes.NewReader(out.Data))
			require.NoError(t, err)
			assert.Equal(t, color.RGBAModel, cfg.ColorModel, "payload must be three-channel truecolor")
			assert.Equal(t, out.Width, cfg.Width)
			assert.Equal(t, out.Height, cfg.Height)
		})
	}
}

func TestNormalize_DecodesOtherFormats(t *testing.T) {
	n := newTestNormalizer(t, DefaultOptions())
	src := createTestImage(64, 48, color.RGBA{0, 200, 0, 255})

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, src, nil))

	var anim bytes.Buffer
	require.NoError(t, gif.Encode(&anim, src, nil))

	for name, raw := range map[string][]byte{"jpeg": jpg.Bytes(), "gif": anim.Bytes()} {
		t.Run(name, func(t *testing.T) {
			out, err := n.Normalize(raw)
			require.NoError(t, err)
			assert.Equal(t, name, out.SourceFormat)
			assert.Equal(t, 64, out.Width)
			assert.Equal(t, 48, out.Height)
		})
	}
}

func TestNormalize_Failures(t *testing.T) {
	n := newTestNormalizer(t, DefaultOptions())

	tests := []struct {
		name   string
		raw    []byte
		reason string
	}{
		{"nil input", nil, apperrors.ReasonNotFound},
		{"empty input", []byte{}, apperrors.ReasonNotFound},
		{"corrupt bytes", []byte("definitely not an image"), apperrors.ReasonDecodeFailure},
		{"truncated png", encodePNG(t, createTestImage(8, 8, color.RGBA{1, 2, 3, 255}))[:20], apperrors.ReasonDecodeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := n.Normalize(tt.raw)
			require.Error(t, err)
			assert.Nil(t, out)

			var analysisErr *apperrors.AnalysisError
			require.ErrorAs(t, err, &analysisErr)
			assert.Equal(t, apperrors.StageImagePreparation, analysisErr.Stage)
			assert.Equal(t, tt.reason, analysisErr.Reason)
			assert.NotNil(t, analysisErr.Cause)
		})
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring width x height 8-bit gray,
// with no pixel data behind it
func pngHeader(width, height uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.Write([]byte("\x89PNG\r\n\x1a\n"))
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestNormalize_RejectsOversizedSources(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		raw  func(t *testing.T) []byte
	}{
		{
			name: "declared 20000x20000 without pixel data",
			opts: DefaultOptions(),
			raw:  func(t *testing.T) []byte { return pngHeader(20000, 20000) },
		},
		{
			name: "real image above a custom limit",
			opts: DefaultOptions().WithMaxSourcePixels(1000),
			raw: func(t *testing.T) []byte {
				return encodePNG(t, createTestImage(40, 30, color.RGBA{9, 9, 9, 255}))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestNormalizer(t, tt.opts).Normalize(tt.raw(t))
			require.Error(t, err)
			assert.Nil(t, out)

			var analysisErr *apperrors.AnalysisError
			require.ErrorAs(t, err, &analysisErr)
			assert.Equal(t, apperrors.StageImagePreparation, analysisErr.Stage)
			assert.Equal(t, apperrors.ReasonDecodeFailure, analysisErr.Reason)
			assert.Contains(t, analysisErr.Cause.Error(), "image too large")
		})
	}
}

func TestNormalize_AcceptsSourceAtLimit(t *testing.T) {
	n := newTestNormalizer(t, DefaultOptions().WithMaxSourcePixels(1200))
	out, err := n.Normalize(encodePNG(t, createTestImage(40, 30, color.RGBA{9, 9, 9, 255})))
	require.NoError(t, err)
	assert.Equal(t, 40, out.Width)
}

func TestNormalize_JPEGPayload(t *testing.T) {
	n := newTestNormalizer(t, DefaultOptions().WithFormat(FormatJPEG))

	out, err := n.Normalize(encodePNG(t, createTestImage(100, 100, color.RGBA{255, 0, 0, 255})))
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.MIMEType)
	_, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{800, 600, 1600, 2300, 800, 600},
		{4000, 6000, 1600, 2300, 1533, 2300},
		{6000, 4000, 1600, 2300, 1600, 1067},
		{3200, 4600, 1600, 2300, 1600, 2300},
		{100000, 1, 1600, 2300, 1600, 1},
	}

	for _, tt := range tests {
		w, h := FitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
		assert.Equal(t, tt.wantW, w, "width for %dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "height for %dx%d", tt.w, tt.h)
	}
}

func TestFitWithin_PreservesAspect(t *testing.T) {
	for w := 1700; w <= 9000; w += 733 {
		for h := 900; h <= 9000; h += 911 {
			gotW, gotH := FitWithin(w, h, 1600, 2300)
			require.LessOrEqual(t, gotW, 1600)
			require.LessOrEqual(t, gotH, 2300)

			want := float64(w) / float64(h)
			got := float64(gotW) / float64(gotH)
			// one pixel of rounding on the shorter side
			tolerance := want * (1.0/float64(gotW) + 1.0/float64(gotH))
			assert.LessOrEqual(t, math.Abs(want-got), tolerance, "%dx%d -> %dx%d", w, h, gotW, gotH)
		}
	}
}
