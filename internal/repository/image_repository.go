package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "go-vision-assistant/internal/errors"
	"go-vision-assistant/internal/observer"
	"go-vision-assistant/internal/storage"
	"go-vision-assistant/pkg/validation"
)

// RemoteImageRepository implements ImageRepository on top of HTTP and blob storage fetchers
type RemoteImageRepository struct {
	validator URLValidator
	fetcher   storage.ImageFetcher
	blobs     []BlobSource
	publisher observer.Subject
}

// NewRemoteImageRepository creates a repository that fetches over HTTP, preferring
// blob sources for the URLs they handle
func NewRemoteImageRepository(validator URLValidator, fetcher storage.ImageFetcher, publisher observer.Subject, blobs ...BlobSource) *RemoteImageRepository {
	return &RemoteImageRepository{
		validator: validator,
		fetcher:   fetcher,
		blobs:     blobs,
		publisher: publisher,
	}
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *RemoteImageRepository) ValidateImageURL(imageURL string) error {
	if imageURL == "" {
		return apperrors.NewValidationError(validation.MessageEmptyURL, ErrInvalidImageURL)
	}
	if r.validator == nil {
		return nil
	}
	return r.validator.ValidateImageURL(imageURL)
}

// FetchImage validates and downloads imageURL.
// Download failures are image preparation errors with reason "fetch failure".
func (r *RemoteImageRepository) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}

	source := "http"
	var fetcher storage.ImageFetcher = r.fetcher
	for _, b := range r.blobs {
		if b.Handles(imageURL) {
			source = "blob"
			fetcher = b
			break
		}
	}

	start := time.Now()
	if fetcher == nil {
		return nil, r.fetchFailed(ctx, source, start, ErrNoFetcher)
	}

	data, err := fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, r.fetchFailed(ctx, source, start, err)
	}

	r.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		Source:         source,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"image_bytes": len(data)},
	})
	return data, nil
}

func (r *RemoteImageRepository) fetchFailed(ctx context.Context, source string, start time.Time, err error) error {
	r.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetchFailed,
		Source:         source,
		ProcessingTime: time.Since(start),
		Stage:          string(apperrors.StageImagePreparation),
		ErrorMessage:   err.Error(),
	})

	fetchErr := apperrors.NewImagePreparationError(apperrors.ReasonFetchFailure, fmt.Errorf("%s fetch: %w", source, err))
	if errors.Is(err, context.DeadlineExceeded) {
		fetchErr.Message = "Görsel zamanında indirilemedi"
	} else {
		fetchErr.Message = "Görsel indirilemedi"
	}
	return fetchErr
}

func (r *RemoteImageRepository) publish(ctx context.Context, event observer.AnalysisEvent) {
	if r.publisher != nil {
		r.publisher.NotifyObservers(ctx, event)
	}
}
