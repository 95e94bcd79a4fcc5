package domain

import "errors"

var (
	// ErrItemNotFound signals a missing item record.
	ErrItemNotFound = errors.New("item not found")
	// ErrUserNotFound signals a missing user profile.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidDisposition signals an item with an unknown disposition.
	ErrInvalidDisposition = errors.New("invalid disposition")
	// ErrExtractionFailed signals a feature extractor failure. The only
	// run-aborting condition in the matching pipeline.
	ErrExtractionFailed = errors.New("feature extraction failed")
	// ErrVectorDimMismatch signals an embedding of unexpected dimensionality.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrNoImage signals an item without any image to embed.
	ErrNoImage = errors.New("item has no image")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals a rate limit hit at the embedding provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrDeliveryFailed signals a notifier delivery failure.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)
