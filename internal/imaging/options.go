package imaging

import (
	"fmt"

	"golang.org/x/image/draw"
)

// Format is the encoding used for the payload shipped to the model
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// MIMEType returns the content type of the encoded payload
func (f Format) MIMEType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Extension returns the file extension used when the payload is written to disk
func (f Format) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// ParseFormat accepts "png", "jpeg" or "jpg"
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported image format: %q", s)
	}
}

// Options configures image normalization
type Options struct {
	// Bounds the normalized image must fit in
	MaxWidth  int
	MaxHeight int

	// Sources declaring more pixels than this are rejected before decoding
	MaxSourcePixels int64

	// Payload encoding
	Format      Format
	JPEGQuality int

	// Resampling kernel used when downscaling
	Interpolator draw.Interpolator
}

// DefaultMaxSourcePixels caps decoded sources at 50 megapixels
const DefaultMaxSourcePixels = 50_000_000

// DefaultOptions returns the bounds and encoding used for model submission
func DefaultOptions() Options {
	return Options{
		MaxWidth:        1600,
		MaxHeight:       2300,
		MaxSourcePixels: DefaultMaxSourcePixels,
		Format:          FormatPNG,
		JPEGQuality:     90,
		Interpolator:    draw.CatmullRom,
	}
}

// WithBounds returns options with custom maximum dimensions
func (opts Options) WithBounds(maxWidth, maxHeight int) Options {
	opts.MaxWidth = maxWidth
	opts.MaxHeight = maxHeight
	return opts
}

// WithMaxSourcePixels returns options with a different decode limit
func (opts Options) WithMaxSourcePixels(pixels int64) Options {
	opts.MaxSourcePixels = pixels
	return opts
}

// WithFormat returns options with a different payload encoding
func (opts Options) WithFormat(format Format) Options {
	opts.Format = format
	return opts
}

// WithFastScaling trades resampling quality for speed
func (opts Options) WithFastScaling() Options {
	opts.Interpolator = draw.ApproxBiLinear
	return opts
}

// Validate checks that the options describe a usable normalization
func (opts Options) Validate() error {
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		return fmt.Errorf("image bounds must be > 0 (got %dx%d)", opts.MaxWidth, opts.MaxHeight)
	}
	if opts.MaxSourcePixels <= 0 {
		return fmt.Errorf("source pixel limit must be > 0 (got %d)", opts.MaxSourcePixels)
	}
	if opts.Format != FormatPNG && opts.Format != FormatJPEG {
		return fmt.Errorf("unsupported image format: %q", opts.Format)
	}
	if opts.Format == FormatJPEG && (opts.JPEGQuality < 1 || opts.JPEGQuality > 100) {
		return fmt.Errorf("JPEG quality must be within 1..100 (got %d)", opts.JPEGQuality)
	}
	if opts.Interpolator == nil {
		return fmt.Errorf("interpolator must be set")
	}
	return nil
}
