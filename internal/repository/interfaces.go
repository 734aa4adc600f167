package repository

import (
	"context"
)

// ImageRepository resolves image references into raw bytes for one request.
// Nothing fetched is stored.
type ImageRepository interface {
	// FetchImage retrieves the raw image bytes behind imageURL
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// URLValidator checks image URLs before any network access
type URLValidator interface {
	ValidateImageURL(imageURL string) error
}

// BlobSource is a fetcher that serves only URLs it recognizes
type BlobSource interface {
	Handles(imageURL string) bool
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}
