package model

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"go-vision-assistant/internal/imaging"
	"go-vision-assistant/internal/logger"
)

// ClientOptions configures the Gemini API client
type ClientOptions struct {
	APIKey string
	// BaseURL overrides the Gemini endpoint, mainly for tests and proxies
	BaseURL    string
	HTTPClient *http.Client
}

// NewGeminiClient builds the Gemini API client shared by all requests
func NewGeminiClient(ctx context.Context, opts ClientOptions) (*genai.Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// GeminiOptions configures how images are shipped to Gemini
type GeminiOptions struct {
	Staging StagingMode
	// TempDir holds payloads staged for the Files API; empty means os.TempDir()
	TempDir string
	// CleanupTimeout bounds the remote file deletion after a files-mode call
	CleanupTimeout time.Duration
}

// DefaultGeminiOptions sends images inline with the request
func DefaultGeminiOptions() GeminiOptions {
	return GeminiOptions{
		Staging:        StagingInline,
		CleanupTimeout: 10 * time.Second,
	}
}

// GeminiInvoker calls Gemini's generateContent once per analysis
type GeminiInvoker struct {
	client *genai.Client
	opts   GeminiOptions
}

// NewGeminiInvoker creates an invoker on top of an existing client
func NewGeminiInvoker(client *genai.Client, opts GeminiOptions) (*GeminiInvoker, error) {
	if client == nil {
		return nil, fmt.Errorf("gemini client is required")
	}
	if _, err := ParseStagingMode(string(opts.Staging)); err != nil {
		return nil, err
	}
	if opts.CleanupTimeout <= 0 {
		opts.CleanupTimeout = DefaultGeminiOptions().CleanupTimeout
	}
	return &GeminiInvoker{client: client, opts: opts}, nil
}

// Invoke sends prompt and image as a single user turn and collects the text parts of the first candidate.
// Staged resources are released before Invoke returns.
func (g *GeminiInvoker) Invoke(ctx context.Context, img *imaging.NormalizedImage, prompt string, cfg InvocationConfig) (Response, error) {
	if img == nil {
		return Response{}, fmt.Errorf("no image to submit")
	}

	imagePart, release, err := g.stage(ctx, img)
	if err != nil {
		return Response{}, err
	}
	defer release()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			imagePart,
		}, genai.RoleUser),
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, cfg.Model, contents, generationConfig(cfg))
	if err != nil {
		return Response{}, fmt.Errorf("failed to generate content: %w", err)
	}

	resp := extractFragments(result)

	fields := logrus.Fields{
		"model":       cfg.Model,
		"staging":     g.opts.Staging,
		"fragments":   len(resp.Fragments),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if result.UsageMetadata != nil {
		fields["input_tokens"] = result.UsageMetadata.PromptTokenCount
		fields["output_tokens"] = result.UsageMetadata.CandidatesTokenCount
	}
	logger.WithFields(fields).Debug("Gemini response received")

	return resp, nil
}

func generationConfig(cfg InvocationConfig) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     genai.Ptr(cfg.Temperature),
		TopP:            genai.Ptr(cfg.TopP),
		TopK:            genai.Ptr(cfg.TopK),
	}
}

// extractFragments keeps the text parts of the first candidate in order.
// Missing candidates or content yield an empty response.
func extractFragments(result *genai.GenerateContentResponse) Response {
	if result == nil || len(result.Candidates) == 0 {
		return Response{}
	}
	content := result.Candidates[0].Content
	if content == nil {
		return Response{}
	}

	fragments := make([]Fragment, 0, len(content.Parts))
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		fragments = append(fragments, Fragment{Text: part.Text})
	}
	return Response{Fragments: fragments}
}
