package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "go-vision-assistant/internal/errors"
)

// NormalizedImage is a bounded, opaque RGB image ready for model submission.
// It belongs to the analysis call that produced it.
type NormalizedImage struct {
	Image *image.RGBA

	Width  int
	Height int

	SourceWidth  int
	SourceHeight int
	SourceFormat string

	// Encoded payload and its content type
	Data     []byte
	MIMEType string
	Format   Format
}

// Downscaled reports whether the source exceeded the bounds
func (n *NormalizedImage) Downscaled() bool {
	return n.Width != n.SourceWidth || n.Height != n.SourceHeight
}

// Normalizer turns arbitrary uploaded images into NormalizedImages
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a normalizer with the given options
func NewNormalizer(opts Options) (*Normalizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{opts: opts}, nil
}

// Options returns the options the normalizer was built with
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize decodes raw, converts it to opaque RGB and fits it within the configured bounds.
// Failures are *apperrors.AnalysisError values in the image preparation stage.
func (n *Normalizer) Normalize(raw []byte) (*NormalizedImage, error) {
	if len(raw) == 0 {
		return nil, apperrors.NewImagePreparationError(apperrors.ReasonNotFound, fmt.Errorf("no image data"))
	}

	// the header is enough to refuse decompression bombs
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.NewImagePreparationError(apperrors.ReasonDecodeFailure, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > n.opts.MaxSourcePixels {
		return nil, apperrors.NewImagePreparationError(apperrors.ReasonDecodeFailure,
			fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, n.opts.MaxSourcePixels))
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.NewImagePreparationError(apperrors.ReasonDecodeFailure, err)
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, apperrors.NewImagePreparationError(apperrors.ReasonDecodeFailure,
			fmt.Errorf("image has no pixels (%dx%d)", bounds.Dx(), bounds.Dy()))
	}

	width, height := FitWithin(bounds.Dx(), bounds.Dy(), n.opts.MaxWidth, n.opts.MaxHeight)
	rgb := toOpaqueRGB(src, width, height, n.opts.Interpolator)

	data, err := n.encode(rgb)
	if err != nil {
		return nil, apperrors.NewImagePreparationError(apperrors.ReasonEncodeFailure, err)
	}

	return &NormalizedImage{
		Image:        rgb,
		Width:        width,
		Height:       height,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		SourceFormat: format,
		Data:         data,
		MIMEType:     n.opts.Format.MIMEType(),
		Format:       n.opts.Format,
	}, nil
}

// FitWithin returns the largest size with the aspect ratio of width x height that fits in
// maxWidth x maxHeight. Sizes already within bounds are returned unchanged.
func FitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	scale := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	w := clamp(int(math.Round(float64(width)*scale)), 1, maxWidth)
	h := clamp(int(math.Round(float64(height)*scale)), 1, maxHeight)
	return w, h
}

// toOpaqueRGB composites src onto white at the target size
func toOpaqueRGB(src image.Image, width, height int, interpolator draw.Interpolator) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	sb := src.Bounds()
	if sb.Dx() == width && sb.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
		return dst
	}

	interpolator.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	return dst
}

func (n *Normalizer) encode(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	switch n.opts.Format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.opts.JPEGQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
