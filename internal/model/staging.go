package model

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"go-vision-assistant/internal/imaging"
	"go-vision-assistant/internal/logger"
)

// StagingMode selects how the image payload reaches the model
type StagingMode string

const (
	// StagingInline embeds the encoded image in the request body
	StagingInline StagingMode = "inline"
	// StagingFiles uploads the image with the Files API and references it by URI
	StagingFiles StagingMode = "files"
)

// ParseStagingMode accepts "inline" or "files"
func ParseStagingMode(s string) (StagingMode, error) {
	switch StagingMode(s) {
	case StagingInline, StagingFiles:
		return StagingMode(s), nil
	default:
		return "", fmt.Errorf("unknown staging mode: %q", s)
	}
}

// stage produces the request part carrying img and a release func that must always be called
func (g *GeminiInvoker) stage(ctx context.Context, img *imaging.NormalizedImage) (*genai.Part, func(), error) {
	if g.opts.Staging == StagingFiles {
		return g.stageFile(ctx, img)
	}
	return genai.NewPartFromBytes(img.Data, img.MIMEType), func() {}, nil
}

// stageFile writes the payload to a temp file, uploads it and removes the local copy.
// The remote file is deleted by the returned release func.
func (g *GeminiInvoker) stageFile(ctx context.Context, img *imaging.NormalizedImage) (*genai.Part, func(), error) {
	id := uuid.NewString()

	tmp, err := os.CreateTemp(g.opts.TempDir, "vision-"+id+"-*"+img.Format.Extension())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.WithError(rmErr).WithField("path", path).Warn("Failed to remove staging file")
		}
	}()

	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		return nil, nil, fmt.Errorf("failed to write staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to close staging file: %w", err)
	}

	file, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    img.MIMEType,
		DisplayName: "vision-" + id,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to upload image: %w", err)
	}

	release := func() {
		// the request context may already be cancelled here
		cleanupCtx, cancel := context.WithTimeout(context.Background(), g.opts.CleanupTimeout)
		defer cancel()
		if _, err := g.client.Files.Delete(cleanupCtx, file.Name, nil); err != nil {
			logger.WithError(err).WithField("file", file.Name).Warn("Failed to delete uploaded image")
		}
	}

	mimeType := file.MIMEType
	if mimeType == "" {
		mimeType = img.MIMEType
	}
	return genai.NewPartFromURI(file.URI, mimeType), release, nil
}
