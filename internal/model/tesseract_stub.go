//go:build !tesseract
// +build !tesseract

package model

import (
	"context"
	"errors"

	"go-vision-assistant/internal/imaging"
)

// ErrTesseractUnavailable is returned when the binary was built without the tesseract tag
var ErrTesseractUnavailable = errors.New("tesseract build tag is not enabled")

// TesseractInvoker is a placeholder used when the binary is built without Tesseract
type TesseractInvoker struct{}

// NewTesseractInvoker reports that the local OCR backend is not compiled in
func NewTesseractInvoker([]string) (*TesseractInvoker, error) {
	return nil, ErrTesseractUnavailable
}

// Invoke always fails without the tesseract build tag
func (t *TesseractInvoker) Invoke(context.Context, *imaging.NormalizedImage, string, InvocationConfig) (Response, error) {
	return Response{}, ErrTesseractUnavailable
}
