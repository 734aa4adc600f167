package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrNoFetcher indicates no fetcher is configured for the URL
	ErrNoFetcher = errors.New("no image source configured for URL")
)
