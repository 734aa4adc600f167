//go:build tesseract
// +build tesseract

package model

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"go-vision-assistant/internal/imaging"
)

// TesseractInvoker reads text locally with Tesseract instead of calling a remote model.
// The prompt and generation parameters are ignored.
type TesseractInvoker struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractInvoker creates an invoker for the given Tesseract language codes
func NewTesseractInvoker(languages []string) (*TesseractInvoker, error) {
	if len(languages) == 0 {
		return nil, fmt.Errorf("at least one tesseract language is required")
	}
	return &TesseractInvoker{languages: languages, clientFactory: gosseract.NewClient}, nil
}

// Invoke runs one recognition pass over the normalized payload
func (t *TesseractInvoker) Invoke(ctx context.Context, img *imaging.NormalizedImage, _ string, _ InvocationConfig) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if img == nil {
		return Response{}, fmt.Errorf("no image to submit")
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(t.languages...); err != nil {
		return Response{}, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(img.Data); err != nil {
		return Response{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return Response{}, fmt.Errorf("recognize text: %w", err)
	}
	if text == "" {
		return Response{}, nil
	}
	return Response{Fragments: []Fragment{{Text: text}}}, nil
}
