package model

import (
	"context"
	"strings"

	"go-vision-assistant/internal/imaging"
)

// Fragment is one text part of a model response
type Fragment struct {
	Text string
}

// Response is the ordered, possibly empty, sequence of text fragments returned by one call
type Response struct {
	Fragments []Fragment
}

// Text joins the fragments in order with no separator
func (r Response) Text() string {
	var sb strings.Builder
	for _, f := range r.Fragments {
		sb.WriteString(f.Text)
	}
	return sb.String()
}

// Empty reports whether the response carries no readable text.
// Whitespace-only output counts as empty.
func (r Response) Empty() bool {
	return strings.TrimSpace(r.Text()) == ""
}

// Invoker submits one image and one instruction to a vision model.
// Implementations make exactly one request per call and never retry.
type Invoker interface {
	Invoke(ctx context.Context, img *imaging.NormalizedImage, prompt string, cfg InvocationConfig) (Response, error)
}

// InvokerFunc adapts a function to the Invoker interface
type InvokerFunc func(ctx context.Context, img *imaging.NormalizedImage, prompt string, cfg InvocationConfig) (Response, error)

// Invoke calls f
func (f InvokerFunc) Invoke(ctx context.Context, img *imaging.NormalizedImage, prompt string, cfg InvocationConfig) (Response, error) {
	return f(ctx, img, prompt, cfg)
}
